package ai

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// RetryPolicy bounds the attempts made against a classifier for one block.
type RetryPolicy struct {
	Attempts   int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy is three attempts with exponential backoff between 4s and 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, MinBackoff: 4 * time.Second, MaxBackoff: 10 * time.Second}
}

func (p RetryPolicy) normalized() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.MinBackoff <= 0 {
		p.MinBackoff = d.MinBackoff
	}
	if p.MaxBackoff < p.MinBackoff {
		p.MaxBackoff = p.MinBackoff
	}
	return p
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.MinBackoff)
	b = retry.WithCappedDuration(p.MaxBackoff, b)
	return retry.WithMaxRetries(uint64(p.Attempts-1), b) // #nosec G115 -- Attempts is positive after normalization
}

type retrying struct {
	next   ChapterClassifier
	policy RetryPolicy
	log    *zap.Logger
}

// WithRetry wraps c so that failed calls are retried under policy. After the last attempt the
// error is reported as a *ClassifierError; a cancelled context stops retrying immediately.
func WithRetry(c ChapterClassifier, policy RetryPolicy, log *zap.Logger) ChapterClassifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &retrying{next: c, policy: policy.normalized(), log: log}
}

func (r *retrying) ClassifyChapter(ctx context.Context, text string) (Verdict, error) {
	var (
		verdict Verdict
		attempt int
	)
	err := retry.Do(ctx, r.policy.backoff(), func(ctx context.Context) error {
		attempt++
		v, err := r.next.ClassifyChapter(ctx, text)
		if err == nil {
			verdict = v
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		r.log.Warn("chapter classifier call failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.policy.Attempts),
			zap.Error(err))
		return retry.RetryableError(err)
	})
	if err != nil {
		return Verdict{}, &ClassifierError{Attempts: attempt, Err: err}
	}
	return verdict, nil
}
