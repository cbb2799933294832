package enums

import (
	"fmt"
	"strings"
)

// ContributionType is the kind of work a contributor submits. Values are the
// slugs posted by the submission form.
type ContributionType string

const (
	ContributionTypePoem      ContributionType = "siir"
	ContributionTypeStory     ContributionType = "oyku"
	ContributionTypeEssay     ContributionType = "deneme"
	ContributionTypeInterview ContributionType = "roportaj"
	ContributionTypeCritique  ContributionType = "elestiri"
	ContributionTypeImage     ContributionType = "resim"
	ContributionTypeAudio     ContributionType = "ses"
	ContributionTypeVideo     ContributionType = "video"
)

var validContributionTypes = []ContributionType{
	ContributionTypePoem,
	ContributionTypeStory,
	ContributionTypeEssay,
	ContributionTypeInterview,
	ContributionTypeCritique,
	ContributionTypeImage,
	ContributionTypeAudio,
	ContributionTypeVideo,
}

// IsValid checks whether the given type matches the canonical enum.
func (c ContributionType) IsValid() bool {
	for _, candidate := range validContributionTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// RequiresVideoLink reports whether submissions of this type must carry a link.
func (c ContributionType) RequiresVideoLink() bool {
	return c == ContributionTypeVideo
}

// ParseContributionType converts raw form input into ContributionType.
func ParseContributionType(value string) (ContributionType, error) {
	normalized := strings.TrimSpace(value)
	for _, candidate := range validContributionTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contribution type %q", value)
}
