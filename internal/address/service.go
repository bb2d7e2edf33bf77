package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/angelmondragon/storefront/pkg/errors"
)

// Source is the backend address API.
type Source interface {
	ListAddresses(ctx context.Context, token string) ([]commerce.Address, error)
	CreateAddress(ctx context.Context, token string, req commerce.AddressInput) (*commerce.Address, error)
}

type Service interface {
	List(ctx context.Context, token string) ([]Address, error)
	Create(ctx context.Context, token string, input NewAddress) (*Address, error)
}

// NewAddress is a shipping address the customer adds from checkout. Every text
// field is required.
type NewAddress struct {
	ConsigneeName string
	Phone         string
	Province      string
	District      string
	Ward          string
	Street        string
	HouseNum      string
	IsDefault     bool
}

type service struct {
	source Source
}

func NewService(source Source) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("address source required")
	}
	return &service{source: source}, nil
}

// List returns the customer's active addresses with the default one first.
func (s *service) List(ctx context.Context, token string) ([]Address, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New(errors.CodeUnauthorized, "sign in to manage addresses")
	}

	records, err := s.source.ListAddresses(ctx, token)
	if err != nil {
		return nil, err
	}

	out := make([]Address, 0, len(records))
	for _, record := range records {
		if !record.Status {
			continue
		}
		addr, ok := mapAddress(record)
		if !ok {
			continue
		}
		if addr.IsDefault {
			out = append([]Address{addr}, out...)
			continue
		}
		out = append(out, addr)
	}
	return out, nil
}

// Create adds an address to the customer's book. When the backend does not echo
// the record back, the address is returned as submitted without an id.
func (s *service) Create(ctx context.Context, token string, input NewAddress) (*Address, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New(errors.CodeUnauthorized, "sign in to manage addresses")
	}

	req := commerce.AddressInput{
		ConsigneeName:  strings.TrimSpace(input.ConsigneeName),
		ConsigneePhone: strings.TrimSpace(input.Phone),
		Province:       strings.TrimSpace(input.Province),
		District:       strings.TrimSpace(input.District),
		Ward:           strings.TrimSpace(input.Ward),
		Street:         strings.TrimSpace(input.Street),
		HouseNum:       strings.TrimSpace(input.HouseNum),
		IsDefault:      input.IsDefault,
	}
	required := []struct{ field, value string }{
		{"consignee_name", req.ConsigneeName},
		{"consignee_phone", req.ConsigneePhone},
		{"province", req.Province},
		{"district", req.District},
		{"ward", req.Ward},
		{"street", req.Street},
		{"house_num", req.HouseNum},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, errors.New(errors.CodeValidation, r.field+" is required")
		}
	}

	created, err := s.source.CreateAddress(ctx, token, req)
	if err != nil {
		return nil, err
	}
	if created != nil {
		if addr, ok := mapAddress(*created); ok {
			return &addr, nil
		}
	}
	addr := fromRecord(commerce.Address{
		ConsigneeName:  req.ConsigneeName,
		ConsigneePhone: req.ConsigneePhone,
		HouseNum:       req.HouseNum,
		Street:         req.Street,
		Ward:           req.Ward,
		District:       req.District,
		Province:       req.Province,
		IsDefault:      req.IsDefault,
	})
	return &addr, nil
}

// Default returns the address checkout preselects: the one flagged default, else the first.
func Default(addresses []Address) (Address, bool) {
	for _, addr := range addresses {
		if addr.IsDefault {
			return addr, true
		}
	}
	if len(addresses) > 0 {
		return addresses[0], true
	}
	return Address{}, false
}

// Find returns the address with id.
func Find(addresses []Address, id int64) (Address, bool) {
	for _, addr := range addresses {
		if addr.ID == id {
			return addr, true
		}
	}
	return Address{}, false
}

func mapAddress(record commerce.Address) (Address, bool) {
	id, err := record.AddressID.Int64()
	if err != nil || id <= 0 {
		return Address{}, false
	}
	addr := fromRecord(record)
	addr.ID = id
	return addr, true
}

// FromRecord maps a backend address that may lack an id, such as the recipient
// nested in an order.
func FromRecord(record commerce.Address) Address {
	addr := fromRecord(record)
	if id, err := record.AddressID.Int64(); err == nil && id > 0 {
		addr.ID = id
	}
	return addr
}

func fromRecord(record commerce.Address) Address {
	street := strings.TrimSpace(strings.Join(nonEmpty(record.HouseNum, record.Street), " "))
	return Address{
		ConsigneeName: strings.TrimSpace(record.ConsigneeName),
		Phone:         strings.TrimSpace(record.ConsigneePhone),
		Line:          JoinLine(street, record.Ward, record.District, record.Province),
		Ward:          strings.TrimSpace(record.Ward),
		District:      strings.TrimSpace(record.District),
		Province:      strings.TrimSpace(record.Province),
		IsDefault:     record.IsDefault,
	}
}

// JoinLine joins the non-empty address parts into one display line.
func JoinLine(parts ...string) string {
	return strings.Join(nonEmpty(parts...), ", ")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type Address struct {
	ID            int64  `json:"address_id"`
	ConsigneeName string `json:"consignee_name,omitempty"`
	Phone         string `json:"consignee_phone,omitempty"`
	Line          string `json:"line"`
	Ward          string `json:"ward,omitempty"`
	District      string `json:"district,omitempty"`
	Province      string `json:"province,omitempty"`
	IsDefault     bool   `json:"is_default"`
}
