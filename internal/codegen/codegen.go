// Package codegen produces the human-readable identifiers assigned at record
// creation: client and group codes, company codes, policy and claim numbers.
// Generators run once, on first insert of a record lacking the field; they
// never regenerate on update. Random-suffix formats carry no collision check
// of their own - creation paths pair them with InsertWithRetry so a unique
// index violation triggers a bounded regenerate-and-retry.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"brokerage/pkg/platform/sentinel"
)

// MaxAttempts bounds the regenerate-and-retry loop on duplicate codes.
const MaxAttempts = 3

// ClientCode formats CLT-<type initial>-<6 random digits>.
func ClientCode(clientType string) string {
	return fmt.Sprintf("CLT-%s-%06d", initial(clientType), sixDigits())
}

// GroupCode formats GRP-<6 random digits>.
func GroupCode() string {
	return fmt.Sprintf("GRP-%06d", sixDigits())
}

// CompanyCode formats INS-<first 3 alphanumerics of name, upper>-<4 random
// digits>.
func CompanyCode(companyName string) string {
	var prefix strings.Builder
	for _, r := range companyName {
		if prefix.Len() == 3 {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			prefix.WriteRune(r)
		}
	}
	return fmt.Sprintf("INS-%s-%04d", strings.ToUpper(prefix.String()), 1000+rand.Intn(9000))
}

// PolicyNumber formats POL-<type initial>-<6 random digits>.
func PolicyNumber(policyType string) string {
	return fmt.Sprintf("POL-%s-%06d", initial(policyType), sixDigits())
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RiskNoteNumber formats PN<13 random base-36 characters>.
func RiskNoteNumber() string {
	var b strings.Builder
	b.WriteString("PN")
	for i := 0; i < 13; i++ {
		b.WriteByte(base36[rand.Intn(len(base36))])
	}
	return b.String()
}

// ClaimPrefix is CL<2-digit year><2-digit month> for the given time.
func ClaimPrefix(now time.Time) string {
	return fmt.Sprintf("CL%02d%02d", now.Year()%100, int(now.Month()))
}

// NextClaimNumber increments the trailing 5-digit sequence of the
// lexicographically greatest claim number in the current month window, or
// starts at 1 when the window is empty. lastInWindow must already match
// ClaimPrefix(now); pass "" when no claim exists for the window.
func NextClaimNumber(now time.Time, lastInWindow string) (string, error) {
	prefix := ClaimPrefix(now)
	sequence := 1
	if lastInWindow != "" {
		if !strings.HasPrefix(lastInWindow, prefix) || len(lastInWindow) < len(prefix)+5 {
			return "", fmt.Errorf("claim number %q does not belong to window %s", lastInWindow, prefix)
		}
		last, err := strconv.Atoi(lastInWindow[len(lastInWindow)-5:])
		if err != nil {
			return "", fmt.Errorf("claim number %q has a malformed sequence: %w", lastInWindow, err)
		}
		sequence = last + 1
	}
	if sequence > 99999 {
		return "", fmt.Errorf("claim sequence exhausted for window %s", prefix)
	}
	return fmt.Sprintf("%s%05d", prefix, sequence), nil
}

// InsertWithRetry runs insert, regenerating the code via generate and
// retrying when the store reports a duplicate on the generated field. Two
// concurrent creates may still race to the same code; the losing insert hits
// the unique index and retries with a fresh value instead of surfacing a
// write error. A duplicate on any other unique field is not retryable and
// returns immediately.
func InsertWithRetry(ctx context.Context, field string, generate func() string, apply func(code string), insert func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		apply(generate())
		err = insert(ctx)
		if err == nil || !errors.Is(err, sentinel.ErrDuplicate) {
			return err
		}
		if violated := sentinel.DuplicateField(err); violated != "" && violated != field {
			return err
		}
	}
	return err
}

func initial(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1])
}

func sixDigits() int {
	return 100000 + rand.Intn(900000)
}
