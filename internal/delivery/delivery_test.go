package delivery

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/kimiashop/orderflow/internal/errs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	re := regexp.MustCompile(`^\d{4}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, re, GenerateCode())
	}
}

func TestEndOfDay(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	eod := EndOfDay(now)
	assert.Equal(t, time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC), eod)
	assert.True(t, eod.After(now))
}

func TestCodeCheck(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	base := Code{Code: "1234", Active: true, ExpiresAt: EndOfDay(now)}

	assert.NoError(t, base.Check("1234", now))

	mismatch := base
	assert.True(t, errs.Is(mismatch.Check("0000", now), errs.KindValidation))

	used := base
	used.Used = true
	assert.True(t, errs.Is(used.Check("1234", now), errs.KindConflict))

	inactive := base
	inactive.Active = false
	assert.True(t, errs.Is(inactive.Check("1234", now), errs.KindConflict))

	assert.True(t, errs.Is(base.Check("1234", now.Add(13*time.Hour)), errs.KindExpired))
}

type fakeStore struct {
	codes map[string]Code // by order id
}

func (f *fakeStore) Insert(_ context.Context, c Code) error {
	f.codes[c.OrderID] = c
	return nil
}

func (f *fakeStore) GetActiveByOrder(_ context.Context, orderID string) (Code, error) {
	c, ok := f.codes[orderID]
	if !ok || !c.Active {
		return Code{}, errs.New(errs.KindNotFound, "no delivery code for order")
	}
	return c, nil
}

func (f *fakeStore) MarkUsed(_ context.Context, id, courier, notes string) error {
	for k, c := range f.codes {
		if c.ID == id {
			if c.Used {
				return errs.New(errs.KindConflict, "delivery code already used")
			}
			c.Used, c.Courier, c.Notes = true, courier, notes
			f.codes[k] = c
			return nil
		}
	}
	return errs.New(errs.KindNotFound, "no delivery code")
}

func (f *fakeStore) Deactivate(_ context.Context, orderID string) error {
	if c, ok := f.codes[orderID]; ok {
		c.Active = false
		f.codes[orderID] = c
	}
	return nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, phone, text string) error {
	f.sent = append(f.sent, phone+": "+text)
	return f.err
}

func newTestService() (*Service, *fakeStore, *fakeSender) {
	st := &fakeStore{codes: map[string]Code{}}
	sn := &fakeSender{}
	svc := NewService(st, sn, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, st, sn
}

func TestIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	svc, _, sn := newTestService()

	c, err := svc.Issue(ctx, "o-1", "ORD-1748779200000-0001", "+989121234567")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}$`, c.Code)
	require.Len(t, sn.sent, 1)
	assert.Contains(t, sn.sent[0], c.Code)

	require.NoError(t, svc.Verify(ctx, "o-1", c.Code, "hassan", "left at door"))

	// a code is consumable at most once
	err = svc.Verify(ctx, "o-1", c.Code, "hassan", "")
	assert.True(t, errs.Is(err, errs.KindConflict))
}

func TestVerifyMismatch(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	c, err := svc.Issue(ctx, "o-2", "ORD-1748779200000-0002", "+989120000000")
	require.NoError(t, err)

	wrong := "0000"
	if wrong == c.Code {
		wrong = "0001"
	}
	assert.True(t, errs.Is(svc.Verify(ctx, "o-2", wrong, "ali", ""), errs.KindValidation))
}

func TestVerifyNoCode(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.Verify(context.Background(), "missing", "1234", "ali", "")
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestIssueSurvivesSMSFailure(t *testing.T) {
	ctx := context.Background()
	svc, st, sn := newTestService()
	sn.err = errs.New(errs.KindExternalService, "provider down")

	c, err := svc.Issue(ctx, "o-3", "ORD-1748779200000-0003", "+989121111111")
	require.NoError(t, err)
	assert.Equal(t, c.ID, st.codes["o-3"].ID)
}

func TestIssueRetiresPreviousCode(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService()

	first, err := svc.Issue(ctx, "o-4", "ORD-1748779200000-0004", "+989122222222")
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "o-4", "ORD-1748779200000-0004", "+989122222222")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, st.codes["o-4"].Active)
	assert.Equal(t, second.ID, st.codes["o-4"].ID)
}
