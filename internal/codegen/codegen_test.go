package codegen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage/pkg/platform/sentinel"
)

func TestCodeFormats(t *testing.T) {
	assert.Regexp(t, `^CLT-I-\d{6}$`, ClientCode("Individual"))
	assert.Regexp(t, `^CLT-C-\d{6}$`, ClientCode("Corporate"))
	assert.Regexp(t, `^GRP-\d{6}$`, GroupCode())
	assert.Regexp(t, `^POL-A-\d{6}$`, PolicyNumber("Auto"))
	assert.Regexp(t, `^PN[0-9a-z]{13}$`, RiskNoteNumber())
}

func TestCompanyCode(t *testing.T) {
	assert.Regexp(t, `^INS-JUB-\d{4}$`, CompanyCode("Jubilee Insurance"))
	// Non-alphanumerics are skipped when building the prefix.
	assert.Regexp(t, `^INS-AIG-\d{4}$`, CompanyCode("A.I. Group"))
	// Names shorter than three characters keep what they have.
	assert.Regexp(t, `^INS-AB-\d{4}$`, CompanyCode("AB"))
}

func TestClaimPrefix(t *testing.T) {
	now := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "CL2608", ClaimPrefix(now))

	january := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "CL2701", ClaimPrefix(january))
}

func TestNextClaimNumber(t *testing.T) {
	now := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)

	first, err := NextClaimNumber(now, "")
	require.NoError(t, err)
	assert.Equal(t, "CL260800001", first)

	next, err := NextClaimNumber(now, "CL260800041")
	require.NoError(t, err)
	assert.Equal(t, "CL260800042", next)

	_, err = NextClaimNumber(now, "CL260700099")
	assert.Error(t, err, "a stale window must not seed the sequence")

	_, err = NextClaimNumber(now, "CL2608abcde")
	assert.Error(t, err)

	_, err = NextClaimNumber(now, "CL260899999")
	assert.Error(t, err, "the five-digit sequence is exhausted at 99999")
}

func TestInsertWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt succeeds", func(t *testing.T) {
		generated := 0
		err := InsertWithRetry(ctx, "clientCode",
			func() string { generated++; return "CLT-I-000001" },
			func(string) {},
			func(context.Context) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, 1, generated)
	})

	t.Run("regenerates on a collision of the generated field", func(t *testing.T) {
		var codes []string
		inserts := 0
		err := InsertWithRetry(ctx, "clientCode",
			func() string { return ClientCode("Individual") },
			func(code string) { codes = append(codes, code) },
			func(context.Context) error {
				inserts++
				if inserts == 1 {
					return sentinel.NewDuplicate("clientCode")
				}
				return nil
			})
		require.NoError(t, err)
		assert.Len(t, codes, 2)
	})

	t.Run("a bare duplicate with no field information retries", func(t *testing.T) {
		inserts := 0
		err := InsertWithRetry(ctx, "groupCode",
			GroupCode,
			func(string) {},
			func(context.Context) error {
				inserts++
				if inserts == 1 {
					return sentinel.ErrDuplicate
				}
				return nil
			})
		require.NoError(t, err)
		assert.Equal(t, 2, inserts)
	})

	t.Run("a duplicate on another unique field is not retryable", func(t *testing.T) {
		inserts := 0
		err := InsertWithRetry(ctx, "clientCode",
			func() string { return ClientCode("Individual") },
			func(string) {},
			func(context.Context) error {
				inserts++
				return sentinel.NewDuplicate("phoneNumber")
			})
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrDuplicate))
		assert.Equal(t, 1, inserts)
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		inserts := 0
		err := InsertWithRetry(ctx, "policyNumber",
			func() string { return PolicyNumber("Home") },
			func(string) {},
			func(context.Context) error {
				inserts++
				return sentinel.NewDuplicate("policyNumber")
			})
		require.Error(t, err)
		assert.Equal(t, MaxAttempts, inserts)
	})
}
