package entries

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Entry is one protected TOTP seed.
//
// Ciphertext and Salt are either both set or both nil.
type Entry struct {
	Name        string
	Issuer      string
	Ciphertext  []byte
	Salt        []byte
	Icon        string
	CreatedTime time.Time
}

// NewEntry builds an entry stamped with the current time.
func NewEntry(name, issuer, icon string, ciphertext, salt []byte) Entry {
	return Entry{
		Name:        name,
		Issuer:      issuer,
		Ciphertext:  ciphertext,
		Salt:        salt,
		Icon:        icon,
		CreatedTime: nowFn(),
	}
}

// HasSecret reports whether the entry carries a ciphertext/salt pair.
func (e Entry) HasSecret() bool {
	return len(e.Ciphertext) > 0 && len(e.Salt) > 0
}

func (e Entry) clone() Entry {
	out := e
	if e.Ciphertext != nil {
		out.Ciphertext = append([]byte(nil), e.Ciphertext...)
	}
	if e.Salt != nil {
		out.Salt = append([]byte(nil), e.Salt...)
	}
	return out
}

// fileEntry is the on-disk shape of an Entry.
type fileEntry struct {
	Name         string   `json:"name"`
	Issuer       string   `json:"issuer"`
	EncryptedKey *string  `json:"encrypted_key"`
	Salt         *string  `json:"salt"`
	Icon         string   `json:"icon"`
	CreatedTime  *float64 `json:"created_time,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	fe := fileEntry{
		Name:   e.Name,
		Issuer: e.Issuer,
		Icon:   e.Icon,
	}
	if e.HasSecret() {
		k := base64.StdEncoding.EncodeToString(e.Ciphertext)
		s := base64.StdEncoding.EncodeToString(e.Salt)
		fe.EncryptedKey, fe.Salt = &k, &s
	}
	ct := toUnixFloat(e.CreatedTime)
	fe.CreatedTime = &ct
	return json.Marshal(fe)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var fe struct {
		fileEntry
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(data, &fe); err != nil {
		return err
	}
	if fe.Name == nil {
		return fmt.Errorf("%w: entry without name", ErrMalformedStore)
	}

	out := Entry{Name: *fe.Name, Issuer: fe.Issuer, Icon: fe.Icon}

	// A record with only one half of the pair loads with neither.
	if fe.EncryptedKey != nil && *fe.EncryptedKey != "" && fe.Salt != nil && *fe.Salt != "" {
		ct, err := base64.StdEncoding.DecodeString(*fe.EncryptedKey)
		if err != nil {
			return fmt.Errorf("%w: entry %q encrypted_key: %v", ErrMalformedStore, out.Name, err)
		}
		salt, err := base64.StdEncoding.DecodeString(*fe.Salt)
		if err != nil {
			return fmt.Errorf("%w: entry %q salt: %v", ErrMalformedStore, out.Name, err)
		}
		out.Ciphertext, out.Salt = ct, salt
	}

	if fe.CreatedTime != nil {
		out.CreatedTime = fromUnixFloat(*fe.CreatedTime)
	} else {
		out.CreatedTime = nowFn()
	}

	*e = out
	return nil
}

func toUnixFloat(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}

func fromUnixFloat(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}
