package members

import (
	"context"
	"errors"
	"testing"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/testutil"
)

// TestAttachReferrerOnce: пригласивший привязывается ровно один раз,
// повторная привязка не перезаписывает первую
func TestAttachReferrerOnce(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	referrerID := testutil.NewUserID()
	otherID := testutil.NewUserID()
	referredID := testutil.NewUserID()
	testutil.CreateUser(t, pool, referrerID, 0, 0)
	testutil.CreateUser(t, pool, otherID, 0, 0)
	testutil.CreateUser(t, pool, referredID, 0, 0)

	if err := repo.AttachReferrer(ctx, referredID, referrerID); err != nil {
		t.Fatalf("привязка реферера: %v", err)
	}

	if err := repo.AttachReferrer(ctx, referredID, otherID); !errors.Is(err, common.ErrAlreadyReferred) {
		t.Fatalf("повторная привязка: err = %v, ожидалось ErrAlreadyReferred", err)
	}

	u, err := repo.GetUser(ctx, referredID)
	if err != nil {
		t.Fatalf("чтение пользователя: %v", err)
	}
	if u.ReferrerID == nil || *u.ReferrerID != referrerID {
		t.Errorf("referrer_id = %v, ожидалось %d", u.ReferrerID, referrerID)
	}

	n, err := repo.CountReferrals(ctx, referrerID)
	if err != nil || n != 1 {
		t.Errorf("CountReferrals = %d (%v), ожидалось 1", n, err)
	}
}
