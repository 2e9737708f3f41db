package entities

type User struct {
	ID       string `json:"id" db:"uid"`
	Email    string `json:"email" db:"email"`
	FullName string `json:"full_name" db:"full_name"`
	Locale   string `json:"locale" db:"locale"`
}
