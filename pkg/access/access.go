// Package access decides whether a user may enter a lounge.
//
// Paid lounges can be unlocked by a platform subscription, a per-lounge
// subscription, or a combination of the two. Which one applies is a product
// decision; it is configured explicitly and never assumed.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"prompterly/pkg/models"
)

// ErrPolicyUndecided is returned when a paid lounge is checked without a known policy.
var ErrPolicyUndecided = errors.New("billing access policy is not decided")

var ErrLoungeNotFound = errors.New("lounge not found")

type Policy string

const (
	// PolicyPlatform requires a platform subscription.
	PolicyPlatform Policy = "platform"
	// PolicyLounge requires a subscription to the lounge itself.
	PolicyLounge Policy = "lounge"
	PolicyEither Policy = "either"
	PolicyBoth   Policy = "both"
)

func (p Policy) Valid() bool {
	switch p {
	case PolicyPlatform, PolicyLounge, PolicyEither, PolicyBoth:
		return true
	}
	return false
}

// ParsePolicy accepts the configured policy name. Empty and unknown names
// return ErrPolicyUndecided.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%q: %w", s, ErrPolicyUndecided)
	}
	return p, nil
}

// Decision explains an access check.
type Decision struct {
	Allowed bool
	Reason  string
}

// subscription states that grant access
var entitled = []models.SubscriptionStatus{models.SubscriptionTrialing, models.SubscriptionActive}

// Check decides whether userID may enter loungeID at now. Free lounges are
// open to everyone. Invite-only lounges need an active membership. Paid
// lounges apply the policy; when the lounge names a plan, only a platform
// subscription to that plan counts. The lounge's mentor and admins always pass.
func (p Policy) Check(ctx context.Context, gdb *gorm.DB, userID, loungeID uint64, now time.Time) (Decision, error) {
	orm := gdb.WithContext(ctx)

	var lounge models.Lounge
	switch err := orm.Preload("Mentor").First(&lounge, "id = ?", loungeID).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Decision{}, fmt.Errorf("lounge %d: %w", loungeID, ErrLoungeNotFound)
	case err != nil:
		return Decision{}, err
	}

	if lounge.AccessType == models.AccessFree {
		return Decision{Allowed: true, Reason: "free lounge"}, nil
	}
	if lounge.Mentor != nil && lounge.Mentor.UserID == userID {
		return Decision{Allowed: true, Reason: "lounge mentor"}, nil
	}
	var user models.User
	if err := orm.Select("id", "role").First(&user, "id = ?", userID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{}, err
	}
	if user.Role == models.RoleAdmin {
		return Decision{Allowed: true, Reason: "admin"}, nil
	}

	if lounge.AccessType == models.AccessInviteOnly {
		ok, err := exists(orm.Model(&models.LoungeMembership{}).
			Where("user_id = ? AND lounge_id = ? AND left_at IS NULL", userID, loungeID))
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			return Decision{Reason: "not invited"}, nil
		}
		return Decision{Allowed: true, Reason: "member"}, nil
	}

	if !p.Valid() {
		return Decision{}, ErrPolicyUndecided
	}
	pq := active(orm.Model(&models.Subscription{}), now).Where("user_id = ?", userID)
	if lounge.PlanID != nil {
		pq = pq.Where("plan_id = ?", *lounge.PlanID)
	}
	platform, err := exists(pq)
	if err != nil {
		return Decision{}, err
	}
	perLounge, err := exists(active(orm.Model(&models.LoungeSubscription{}), now).
		Where("user_id = ? AND lounge_id = ?", userID, loungeID))
	if err != nil {
		return Decision{}, err
	}

	var allowed bool
	switch p {
	case PolicyPlatform:
		allowed = platform
	case PolicyLounge:
		allowed = perLounge
	case PolicyEither:
		allowed = platform || perLounge
	case PolicyBoth:
		allowed = platform && perLounge
	}
	reason := fmt.Sprintf("policy %s: platform=%t lounge=%t", p, platform, perLounge)
	return Decision{Allowed: allowed, Reason: reason}, nil
}

func active(q *gorm.DB, now time.Time) *gorm.DB {
	return q.Where("status IN ?", entitled).
		Where("canceled_at IS NULL").
		Where("(renews_at IS NULL OR renews_at >= ?)", now.UTC())
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
