package schema

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prompterly/pkg/models"
)

func openTestDB(t *testing.T) (*gorm.DB, *Registry) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "schema.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	reg, err := Canonical()
	require.NoError(t, err)
	require.NoError(t, reg.Register(db))
	return db, reg
}

func requireViolation(t *testing.T, err error, kind Kind) *ConstraintViolation {
	t.Helper()
	require.Error(t, err)
	var cv *ConstraintViolation
	require.True(t, errors.As(err, &cv), "got %T: %v", err, err)
	assert.Equal(t, kind, cv.Kind, err.Error())
	return cv
}

func TestEnumRejectedForEveryEnumColumn(t *testing.T) {
	db, reg := openTestDB(t)

	for _, tbl := range reg.Tables() {
		for _, c := range tbl.Columns {
			if c.Enum == nil {
				continue
			}
			t.Run(tbl.Name+"."+c.Name, func(t *testing.T) {
				err := db.Table(tbl.Name).Create(map[string]any{c.Name: "not-a-value"}).Error
				cv := requireViolation(t, err, KindEnum)
				assert.Equal(t, tbl.Name, cv.Table)
				assert.Equal(t, c.Name, cv.Column)
				assert.Equal(t, "not-a-value", cv.Value)
			})
		}
	}
}

func TestEnumOnStructWrites(t *testing.T) {
	db, _ := openTestDB(t)

	bad := models.User{Email: "bad@example.com", FullName: "Bad", Role: "superuser"}
	requireViolation(t, db.Create(&bad).Error, KindEnum)

	// Zero value with a column default is filled by the store.
	u := models.User{Email: "ok@example.com", FullName: "Ok"}
	require.NoError(t, db.Create(&u).Error)
	var got models.User
	require.NoError(t, db.First(&got, u.ID).Error)
	assert.Equal(t, models.RoleMember, got.Role)

	requireViolation(t, db.Model(&u).Update("role", "root").Error, KindEnum)
	requireViolation(t, db.Model(&u).Updates(map[string]any{"role": "root"}).Error, KindEnum)
	require.NoError(t, db.Model(&u).Update("role", models.RoleAdmin).Error)

	batch := []models.Category{{Name: "A", Slug: "a"}, {Name: "B", Slug: "b"}}
	require.NoError(t, db.Create(&batch).Error)

	otps := []*models.EmailOTP{
		{Email: "x@example.com", CodeHash: "h", Purpose: models.OTPRegistration, ExpiresAt: time.Now()},
		{Email: "y@example.com", CodeHash: "h", Purpose: "login", ExpiresAt: time.Now()},
	}
	requireViolation(t, db.Create(&otps).Error, KindEnum)
}

func TestStoreErrorsAreTranslated(t *testing.T) {
	db, _ := openTestDB(t)

	u := models.User{Email: "dup@example.com", FullName: "One"}
	require.NoError(t, db.Create(&u).Error)

	cv := requireViolation(t, db.Create(&models.User{Email: "dup@example.com", FullName: "Two"}).Error, KindUnique)
	assert.Equal(t, "users", cv.Table)
	assert.Equal(t, "email", cv.Column)

	orphan := models.OAuthAccount{UserID: 999, Provider: models.ProviderGoogle, ProviderUserID: "g-1"}
	requireViolation(t, db.Create(&orphan).Error, KindForeignKey)

	err := db.Exec("UPDATE users SET role = 'bogus' WHERE id = ?", u.ID).Error
	cv = requireViolation(t, err, KindCheck)
	assert.Equal(t, "chk_users_role", cv.Constraint)
}

func TestDeleteRules(t *testing.T) {
	db, _ := openTestDB(t)

	owner := models.User{Email: "owner@example.com", FullName: "Owner", Role: models.RoleMentor}
	member := models.User{Email: "member@example.com", FullName: "Member"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&member).Error)

	mentor := models.Mentor{UserID: owner.ID, Status: models.MentorApproved}
	require.NoError(t, db.Create(&mentor).Error)
	cat := models.Category{Name: "Career", Slug: "career"}
	require.NoError(t, db.Create(&cat).Error)
	lounge := models.Lounge{MentorID: mentor.ID, CategoryID: &cat.ID, Title: "Lounge", Slug: "lounge"}
	require.NoError(t, db.Create(&lounge).Error)
	membership := models.LoungeMembership{UserID: member.ID, LoungeID: lounge.ID, JoinedAt: time.Now()}
	require.NoError(t, db.Create(&membership).Error)
	audit := models.AuditLog{UserID: &member.ID, Action: "login", EntityType: "user", EntityID: &member.ID}
	require.NoError(t, db.Create(&audit).Error)
	account := models.OAuthAccount{UserID: member.ID, Provider: models.ProviderGoogle, ProviderUserID: "g-2"}
	require.NoError(t, db.Create(&account).Error)

	// SET NULL keeps the child.
	require.NoError(t, db.Delete(&models.Category{}, cat.ID).Error)
	var l models.Lounge
	require.NoError(t, db.First(&l, lounge.ID).Error)
	assert.Nil(t, l.CategoryID)

	// Deleting a user cascades to owned rows and nulls the audit trail.
	require.NoError(t, db.Delete(&models.User{}, member.ID).Error)
	var count int64
	require.NoError(t, db.Model(&models.OAuthAccount{}).Where("user_id = ?", member.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.LoungeMembership{}).Count(&count).Error)
	assert.Zero(t, count)
	var a models.AuditLog
	require.NoError(t, db.First(&a, audit.ID).Error)
	assert.Nil(t, a.UserID)

	// Deleting a mentor removes its lounges.
	require.NoError(t, db.Delete(&models.Mentor{}, mentor.ID).Error)
	require.NoError(t, db.Model(&models.Lounge{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuditLogIsAppendOnly(t *testing.T) {
	db, _ := openTestDB(t)

	entry := models.AuditLog{Action: "settings.update", EntityType: "system_setting"}
	require.NoError(t, db.Create(&entry).Error)

	requireViolation(t, db.Model(&entry).Update("action", "rewritten").Error, KindAppendOnly)
	requireViolation(t, db.Delete(&entry).Error, KindAppendOnly)

	var got models.AuditLog
	require.NoError(t, db.First(&got, entry.ID).Error)
	assert.Equal(t, "settings.update", got.Action)
}

func TestTranslateErrorPassThrough(t *testing.T) {
	assert.NoError(t, TranslateError(nil))
	plain := errors.New("connection refused")
	assert.Same(t, plain, TranslateError(plain))

	cv := &ConstraintViolation{Kind: KindEnum}
	assert.Same(t, error(cv), TranslateError(cv))

	requireViolation(t, TranslateError(gorm.ErrDuplicatedKey), KindUnique)
	requireViolation(t, TranslateError(gorm.ErrForeignKeyViolated), KindForeignKey)
	requireViolation(t, TranslateError(errors.New("constraint failed: CHECK constraint failed: chk_x (275)")), KindCheck)
}
