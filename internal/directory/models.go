package directory

import (
	"github.com/google/uuid"
)

type Patient struct {
	ID          int64     `json:"-" dbfield:"id"`
	UUID        uuid.UUID `json:"uuid" dbfield:"uuid"`
	Name        string    `json:"name" dbfield:"name"`
	Email       string    `json:"email" dbfield:"email"`
	MobilePhone string    `json:"mobile_phone" dbfield:"mobile_phone"`
}

type Therapist struct {
	ID        int64     `json:"-" dbfield:"id"`
	UUID      uuid.UUID `json:"uuid" dbfield:"uuid"`
	UserID    int64     `json:"-" dbfield:"user_id"`
	Name      string    `json:"name" dbfield:"name"`
	Email     string    `json:"email" dbfield:"email"`
	Specialty string    `json:"specialty" dbfield:"specialty"`
}
