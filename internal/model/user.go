package model

import "time"

// User represents a registered account.  Both regular customers and
// business owners live in the same table; the IsBusiness flag decides
// whether the account may own queues.  Phone is the login identifier
// and must be unique.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – display name.
//  Email           – optional contact email.
//  Phone           – unique phone number used to log in.
//  PasswordHash    – bcrypt hash of the password.
//  IsBusiness      – whether the account is a business owner.
//  BusinessName    – business display name (nil for customers).
//  BusinessType    – free-form business category (nullable).
//  BusinessAddress – street address of the business (nullable).
//  FCMToken        – push delivery token registered by the mobile app.
//  CreatedAt       – creation timestamp.
type User struct {
	ID              uint64    // users.id
	Name            string    // users.name
	Email           *string   // users.email (nullable)
	Phone           string    // users.phone
	PasswordHash    string    // users.password_hash
	IsBusiness      bool      // users.is_business
	BusinessName    *string   // users.business_name (nullable)
	BusinessType    *string   // users.business_type (nullable)
	BusinessAddress *string   // users.business_address (nullable)
	FCMToken        *string   // users.fcm_token (nullable)
	CreatedAt       time.Time // users.created_at
}

// Role names carried in the JWT "role" claim.  Queue mutation endpoints
// require RoleBusiness; everything else accepts both.
const (
	RoleBusiness = "BUSINESS"
	RoleCustomer = "CUSTOMER"
)

// Role derives the JWT role for the account.
func (u *User) Role() string {
	if u.IsBusiness {
		return RoleBusiness
	}
	return RoleCustomer
}
