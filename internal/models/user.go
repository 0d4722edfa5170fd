package models

// User представляет модель пользователя.
// Аутентификация живёт во внешнем слое, здесь только идентичность.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Member — пользователь вместе с ролью в рабочем пространстве.
type Member struct {
	User
	Role string `json:"role"`
}
