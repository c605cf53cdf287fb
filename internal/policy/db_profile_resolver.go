package policy

import (
	"context"

	"github.com/uclergnlts/tav-egitim/gate"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"gorm.io/gorm"
)

// Resources guarded by the gate.
const (
	ResourceAttendance = "attendance"
	ResourcePersonnel  = "personnel"
	ResourceTraining   = "training"
	ResourceTrainer    = "trainer"
	ResourceDefinition = "definition"
	ResourceImport     = "import"
	ResourceReport     = "report"
)

var roleProfiles = map[models.Role]gate.Profile{
	models.RoleAdmin: gate.NewStaticProfile(string(models.RoleAdmin), gate.PermissionSuperAdmin),
	models.RoleChef: gate.NewStaticProfile(string(models.RoleChef),
		gate.NewPermission(ResourceAttendance, gate.ActionCreate),
		gate.NewPermission(ResourceAttendance, gate.ActionList),
		gate.NewPermission(ResourcePersonnel, gate.ActionList),
		gate.NewPermission(ResourceTraining, gate.ActionList),
		gate.NewPermission(ResourceTrainer, gate.ActionList),
		gate.NewPermission(ResourceDefinition, gate.ActionList),
	),
}

// ProfileForRole returns the fixed permission set of a role, nil if unknown.
func ProfileForRole(role models.Role) gate.Profile {
	return roleProfiles[role]
}

// DBProfileResolver maps a user ID to the profile of the user's role.
type DBProfileResolver struct {
	DB *gorm.DB
}

func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve loads the user; archived users resolve to no profile.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Select("id", "role", "state").First(&user, userID).Error; err != nil {
		return nil, err
	}
	if user.State.IsEffectivelyDeleted() {
		return nil, nil
	}
	return ProfileForRole(user.Role), nil
}
