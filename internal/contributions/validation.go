package contributions

import (
	"errors"
	"strings"

	"github.com/galatadergisi/galata-backend/pkg/enums"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Submission is the contribution form as received from the client. Fields are
// validated in declaration order and the first failure is reported.
type Submission struct {
	Name         string                 `validate:"required,max=40"`
	Email        string                 `validate:"required,max=100,single_at"`
	Title        string                 `validate:"required,max=120"`
	AssetType    enums.ContributionType `validate:"required,contribution_type"`
	VideoLink    string                 `validate:"required_if=AssetType video,max=255"`
	Message      string                 `validate:"max=5000"`
	CaptchaToken string                 `validate:"required"`
	RemoteIP     string                 `validate:"-"`
}

const (
	msgNameMissing      = "İsim bilgisi eksik; lütfen isminizi giriniz."
	msgNameLong         = "İsim çok uzun, lütfen isminizi 40 karakteri aşmayacak şekilde kısaltın."
	msgEmailMissing     = "Eposta bilgisi eksik; lütfen epostanızı giriniz."
	msgEmailLong        = "Eposta çok uzun, lütfen 100 karakterden kısa bir eposta giriniz."
	msgEmailInvalid     = "Lütfen geçerli bir eposta adresi giriniz."
	msgTitleMissing     = "Başlık bilgisi eksik; lütfen başlık giriniz."
	msgTitleLong        = "Başlık çok uzun, lütfen 120 karakterden kısa bir başlık giriniz."
	msgTypeInvalid      = "Eser Türü eksik, lütfen Eser Türünü seçiniz."
	msgVideoLinkMissing = "Video linki eksik; lütfen video linkini giriniz."
	msgVideoLinkLong    = "Video linki çok uzun, lütfen daha kısa bir adres girin."
	msgMessageLong      = "Mesaj çok uzun, lütfen daha kısa bir mesaj girin."
	msgCaptcha          = "Güvenlik doğrulaması hatası. Lütfen sayfayı yenileyip tekrar deneyiniz."

	// MsgFileTooLarge and MsgTooManyFiles are reported by the upload handler.
	MsgFileTooLarge = "Dosya çok büyük."
	MsgTooManyFiles = "Yalnızca bir dosya yükleyebilirsiniz."
)

var messages = map[string]string{
	"Name.required":               msgNameMissing,
	"Name.max":                    msgNameLong,
	"Email.required":              msgEmailMissing,
	"Email.max":                   msgEmailLong,
	"Email.single_at":             msgEmailInvalid,
	"Title.required":              msgTitleMissing,
	"Title.max":                   msgTitleLong,
	"AssetType.required":          msgTypeInvalid,
	"AssetType.contribution_type": msgTypeInvalid,
	"VideoLink.required_if":       msgVideoLinkMissing,
	"VideoLink.max":               msgVideoLinkLong,
	"Message.max":                 msgMessageLong,
	"CaptchaToken.required":       msgCaptcha,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("single_at", func(fl validator.FieldLevel) bool {
		return strings.Count(fl.Field().String(), "@") == 1
	})
	_ = v.RegisterValidation("contribution_type", func(fl validator.FieldLevel) bool {
		return enums.ContributionType(fl.Field().String()).IsValid()
	})
	return v
}

// Normalize trims the free text fields and drops the video link for types that
// do not carry one.
func (s Submission) Normalize() Submission {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Title = strings.TrimSpace(s.Title)
	s.AssetType = enums.ContributionType(strings.TrimSpace(string(s.AssetType)))
	s.VideoLink = strings.TrimSpace(s.VideoLink)
	s.Message = strings.TrimSpace(s.Message)
	s.CaptchaToken = strings.TrimSpace(s.CaptchaToken)
	if !s.AssetType.RequiresVideoLink() {
		s.VideoLink = ""
	}
	return s
}

// Validate reports the first rule the submission breaks as a validation error
// carrying the user-facing message.
func Validate(s Submission) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate submission")
	}
	first := fieldErrs[0]
	msg, ok := messages[first.StructField()+"."+first.Tag()]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInternal, "unmapped validation rule "+first.StructField()+"."+first.Tag())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": first.StructField(), "rule": first.Tag()})
}
