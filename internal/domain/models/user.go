package models

import "time"

// User представляет пользователя магазина
type User struct {
	ID        int64
	Username  string
	Email     string
	PassHash  []byte
	Profile   Profile
	CreatedAt time.Time
}

// Profile - необязательные данные покупателя, используются для предзаполнения формы заказа
type Profile struct {
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	Apartment string     `json:"apartment,omitempty"`
	State     string     `json:"state,omitempty"`
	Country   string     `json:"country,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Gender    string     `json:"gender,omitempty"`
}

// PublicUser - пользователь без секретных полей, только он уходит в обработчики и в ответы
type PublicUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public отбрасывает хэш пароля
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
	}
}
