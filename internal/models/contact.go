package models

import (
	"github.com/google/uuid"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
)

// Contact identifies the external counterpart of a conversation. Contacts are
// keyed by phone number and created on the first inbound message from an
// unseen number.
type Contact struct {
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// NewContact builds a contact. The name falls back to the phone number when
// the provider does not supply a profile name.
func NewContact(phone, name string) (Contact, error) {
	if phone == "" {
		return Contact{}, apperrors.NewInvalidCreation("contact")
	}
	if name == "" {
		name = phone
	}
	return Contact{Phone: phone, Name: name}, nil
}

// Sender returns the contact as a message author.
func (c Contact) Sender() Sender {
	return Sender{Type: SenderContact, ID: c.Phone, Name: c.Name}
}

// SenderType discriminates message authorship.
type SenderType string

const (
	SenderAttendant SenderType = "attendant"
	SenderContact   SenderType = "contact"
)

// Sender tags message authorship; ID is a user id for attendants and a phone
// number for contacts.
type Sender struct {
	Type SenderType `json:"type"`
	ID   string     `json:"id"`
	Name string     `json:"name"`
}

// NewSender builds a sender. An empty type defaults to attendant.
func NewSender(senderType SenderType, id, name string) (Sender, error) {
	if id == "" || name == "" {
		return Sender{}, apperrors.NewInvalidCreation("sender")
	}
	if senderType == "" {
		senderType = SenderAttendant
	}
	return Sender{Type: senderType, ID: id, Name: name}, nil
}

// Attendant identifies a human operator. The name is a denormalized snapshot
// taken at assignment time so history shows the name as of the transfer.
type Attendant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewAttendant(id, name string) (Attendant, error) {
	if id == "" || name == "" {
		return Attendant{}, apperrors.NewInvalidCreation("attendant")
	}
	return Attendant{ID: id, Name: name}, nil
}

// Sender returns the attendant as a message author.
func (a Attendant) Sender() Sender {
	return Sender{Type: SenderAttendant, ID: a.ID, Name: a.Name}
}

// Sector is an organizational routing bucket. Like Attendant, the name is a
// snapshot, not a live join.
type Sector struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewSector builds a sector; a fresh id is generated when none is given.
func NewSector(id, name string) (Sector, error) {
	if name == "" {
		return Sector{}, apperrors.NewInvalidCreation("sector")
	}
	if id == "" {
		id = uuid.NewString()
	}
	return Sector{ID: id, Name: name}, nil
}
