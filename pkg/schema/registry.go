package schema

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/niksmo/storefront/pkg/retry"
	"github.com/twmb/franz-go/pkg/sr"
)

var _ SchemaIdentifier = Registry{}

type schemaCreater interface {
	CreateSchema(ctx context.Context, subject string, s sr.Schema) (sr.SubjectSchema, error)
}

// A Registry registers Avro schemas in the Schema Registry.
//
// Network errors are retried a few times since the registry is commonly
// started alongside the application.
type Registry struct {
	cl       schemaCreater
	retryCfg retry.RetryConfig
}

func NewRegistry(cl schemaCreater) Registry {
	return Registry{
		cl: cl,
		retryCfg: retry.RetryConfig{
			MaxAttempts: 5,
			Backoff:     retry.ExponentialBackoff(100 * time.Millisecond),
			ShouldRetry: isNetErr,
		},
	}
}

func (r Registry) DetermineID(
	ctx context.Context, subject, schemaText string,
) (int, error) {
	const op = "Registry.DetermineID"

	ss, err := retry.DoWithResult(ctx, r.retryCfg, func() (sr.SubjectSchema, error) {
		return r.cl.CreateSchema(ctx, subject, sr.Schema{
			Schema: schemaText,
			Type:   sr.TypeAvro,
		})
	})
	if err != nil {
		return 0, fmt.Errorf("%s: subject %q: %w", op, subject, err)
	}
	return ss.ID, nil
}

func isNetErr(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
