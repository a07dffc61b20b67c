package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"lims-backend/internal/store"
)

const totpIssuer = "LIMS"

var (
	ErrNoTOTPSecret    = errors.New("totp not set up")
	ErrInvalidTOTPCode = errors.New("invalid totp code")
)

// TOTPService manages the optional second factor pathologists use when
// signing off reports. Verification itself lives in the handlers; the
// report state machine stays unaware of it.
type TOTPService struct {
	store *store.Store
}

func NewTOTPService(st *store.Store) *TOTPService {
	return &TOTPService{store: st}
}

// TOTPSetupResponse carries the enrollment secret and QR code
type TOTPSetupResponse struct {
	Secret      string `json:"secret"`
	QRCode      string `json:"qr_code"`
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
}

// GenerateSetup creates a new secret for a user and returns the QR code
// for the authenticator app. The factor stays disabled until the first
// code is verified.
func (s *TOTPService) GenerateSetup(userID int) (*TOTPSetupResponse, error) {
	var email string
	s.store.View(func(st *store.State) {
		if u, ok := st.Users[userID]; ok {
			email = u.Email
		}
	})
	if email == "" {
		return nil, ErrNotFound
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	err = s.store.Update(func(st *store.State) error {
		u, ok := st.Users[userID]
		if !ok {
			return ErrNotFound
		}
		u.TOTPSecret = key.Secret()
		u.TOTPEnabled = false
		st.Touch(store.ColUsers)
		return nil
	})
	if err != nil {
		return nil, err
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}

	return &TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      totpIssuer,
		AccountName: email,
	}, nil
}

// VerifyAndEnable checks the first code from the authenticator and
// turns the factor on.
func (s *TOTPService) VerifyAndEnable(userID int, code string) error {
	return s.store.Update(func(st *store.State) error {
		u, ok := st.Users[userID]
		if !ok {
			return ErrNotFound
		}
		if u.TOTPSecret == "" {
			return ErrNoTOTPSecret
		}
		if !totp.Validate(code, u.TOTPSecret) {
			return ErrInvalidTOTPCode
		}
		u.TOTPEnabled = true
		st.Touch(store.ColUsers)
		return nil
	})
}

// VerifyCode validates a code for a user with the factor enabled
func (s *TOTPService) VerifyCode(userID int, code string) error {
	var secret string
	enabled := false
	found := false
	s.store.View(func(st *store.State) {
		if u, ok := st.Users[userID]; ok {
			found = true
			secret = u.TOTPSecret
			enabled = u.TOTPEnabled
		}
	})
	if !found {
		return ErrNotFound
	}
	if !enabled || secret == "" {
		return ErrNoTOTPSecret
	}
	if !totp.Validate(code, secret) {
		return ErrInvalidTOTPCode
	}
	return nil
}

// IsEnabled reports whether a user has the factor turned on
func (s *TOTPService) IsEnabled(userID int) bool {
	enabled := false
	s.store.View(func(st *store.State) {
		if u, ok := st.Users[userID]; ok {
			enabled = u.TOTPEnabled
		}
	})
	return enabled
}

// Disable turns the factor off and clears the secret
func (s *TOTPService) Disable(userID int) error {
	return s.store.Update(func(st *store.State) error {
		u, ok := st.Users[userID]
		if !ok {
			return ErrNotFound
		}
		u.TOTPEnabled = false
		u.TOTPSecret = ""
		st.Touch(store.ColUsers)
		return nil
	})
}
