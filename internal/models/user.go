package models

// Field names of user documents.
const (
	FieldUserName   = "name"
	FieldFriendsMap = "friendsMap"
)

const DefaultUserName = "User"

// User is a user profile document keyed by email.
type User struct {
	Email      string            `json:"email" bson:"_id,omitempty"`
	Name       string            `json:"name" bson:"name"`
	FriendsMap map[string]string `json:"friendsMap" bson:"friendsMap"`
	CreatedAt  string            `json:"createdAt" bson:"createdAt"`
}

func (u *User) Normalize() {
	if u.FriendsMap == nil {
		u.FriendsMap = map[string]string{}
	}
	if u.Name == "" {
		u.Name = DefaultUserName
	}
}
