package volunteers

import "errors"

var (
	ErrVolunteerNotFound = errors.New("volunteer not found")
	ErrAlreadyConfirmed  = errors.New("volunteer already confirmed")
	ErrAreaNotFound      = errors.New("volunteer area not found")
	ErrInvalidVolunteer  = errors.New("invalid volunteer details")
	ErrInvalidPoliceForm = errors.New("police form must be a PDF")
)
