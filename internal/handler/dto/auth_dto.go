package dto

// CredentialsRequest — тело запросов /api/register и /api/login
type CredentialsRequest struct {
	Username string `json:"username" binding:"required,min=1,max=64"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// AuthResponse — ответ на регистрацию и вход
type AuthResponse struct {
	ID          uint   `json:"id,omitempty"`
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
