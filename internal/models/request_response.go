package models

// Form models. Field names follow the HTML forms; the validate tags are
// checked by the service layer, not by gin's binding.

type SignUpForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

type LoginForm struct {
	Username string `form:"username"` // username or email
	Password string `form:"password"`
}

type ManualTransactionForm struct {
	PatientRef string `form:"nama_pasien" validate:"required"`
	RoomClass  string `form:"kelas" validate:"required"`
	CheckIn    string `form:"tgl_masuk" validate:"required"`
	CheckOut   string `form:"tgl_keluar" validate:"required"`
	Paid       string `form:"status_pembayaran" validate:"oneof=0 1"`
}

type EditTransactionForm struct {
	Total string `form:"total_biaya"`
	Date  string `form:"tgl"`
	Paid  string `form:"status_pembayaran"`
}

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

const (
	FlashSuccess = "success"
	FlashError   = "error"
)
