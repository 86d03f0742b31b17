package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// GeoPoint holds optional delivery coordinates
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DeliveryAddress is the address an order is shipped to.
// It is captured at order time and stored with the order.
type DeliveryAddress struct {
	FullName string    `json:"full_name"`
	Phone    string    `json:"phone"`
	Street   string    `json:"street"`
	City     string    `json:"city"`
	State    string    `json:"state"`
	Pincode  string    `json:"pincode"`
	Geo      *GeoPoint `json:"geo,omitempty"`
}

// NewDeliveryAddress creates a validated delivery address
func NewDeliveryAddress(fullName, phone, street, city, state, pincode string, geo *GeoPoint) (DeliveryAddress, error) {
	fullName = strings.TrimSpace(fullName)
	phone = strings.TrimSpace(phone)
	street = strings.TrimSpace(street)
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	pincode = strings.TrimSpace(pincode)

	if fullName == "" {
		return DeliveryAddress{}, errors.New("recipient name is required")
	}
	if phone == "" {
		return DeliveryAddress{}, errors.New("phone number is required")
	}
	if street == "" {
		return DeliveryAddress{}, errors.New("street is required")
	}
	if city == "" {
		return DeliveryAddress{}, errors.New("city is required")
	}
	if state == "" {
		return DeliveryAddress{}, errors.New("state is required")
	}
	if !pincodePattern.MatchString(pincode) {
		return DeliveryAddress{}, fmt.Errorf("invalid pincode %q", pincode)
	}
	if geo != nil {
		if geo.Latitude < -90 || geo.Latitude > 90 {
			return DeliveryAddress{}, fmt.Errorf("invalid latitude %f", geo.Latitude)
		}
		if geo.Longitude < -180 || geo.Longitude > 180 {
			return DeliveryAddress{}, fmt.Errorf("invalid longitude %f", geo.Longitude)
		}
	}

	return DeliveryAddress{
		FullName: fullName,
		Phone:    phone,
		Street:   street,
		City:     city,
		State:    state,
		Pincode:  pincode,
		Geo:      geo,
	}, nil
}

// IsZero returns true if the address is empty
func (a DeliveryAddress) IsZero() bool {
	return a == DeliveryAddress{}
}

// String returns a single-line rendering of the address
func (a DeliveryAddress) String() string {
	return fmt.Sprintf("%s, %s, %s, %s - %s", a.FullName, a.Street, a.City, a.State, a.Pincode)
}

// Value implements driver.Valuer, storing the address as a JSON column
func (a DeliveryAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *DeliveryAddress) Scan(value any) error {
	if value == nil {
		*a = DeliveryAddress{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into DeliveryAddress", value)
	}

	return json.Unmarshal(data, a)
}
