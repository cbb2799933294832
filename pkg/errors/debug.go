package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the loggable shape of an error: its code, every link of the
// unwrap chain and, when a Postgres error sits in the chain, its fields.
type ErrorDump struct {
	Message  string
	Code     Code
	Chain    []string
	Postgres map[string]string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for link := err; link != nil; link = errors.Unwrap(link) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", link, link))
	}
	d.Postgres = postgresFields(err)
	return d
}

// Fields returns the dump as log fields, leaving the message to the entry's
// own error field. Postgres fields are prefixed with pg_ and only present
// when set.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	for k, v := range d.Postgres {
		if v != "" {
			fields["pg_"+k] = v
		}
	}
	return fields
}

// postgresFields reads either driver's error type: gorm's postgres driver
// surfaces pgx errors, while lib/pq errors come from raw database/sql use.
func postgresFields(err error) map[string]string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return map[string]string{
			"code":       pgxErr.Code,
			"message":    pgxErr.Message,
			"detail":     pgxErr.Detail,
			"table":      pgxErr.TableName,
			"column":     pgxErr.ColumnName,
			"constraint": pgxErr.ConstraintName,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return map[string]string{
			"code":       string(pqErr.Code),
			"message":    pqErr.Message,
			"detail":     pqErr.Detail,
			"table":      pqErr.Table,
			"column":     pqErr.Column,
			"constraint": pqErr.Constraint,
		}
	}
	return nil
}
