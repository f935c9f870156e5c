package auth

// Claims representa la identidad extraída del token.
// UserID es el scope de toda la agenda de medicamentos.
type Claims struct {
	UserID string
	Email  string
}
