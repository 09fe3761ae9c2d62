package admin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	gotName string
	gotPw   string
	err     error
}

func (f *fakeRegistrar) Register(ctx context.Context, userName string, password []byte) (*models.User, error) {
	f.gotName, f.gotPw = userName, string(password)
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u-1", UserName: userName}, nil
}

func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(pws) {
			return nil, errors.New("no more input")
		}
		pw := []byte(pws[i])
		i++
		return pw, nil
	}
}

func TestAddUser_PromptsForName(t *testing.T) {
	stubPasswords(t, "secret", "secret")
	reg := &fakeRegistrar{}
	var out bytes.Buffer

	u, err := NewAddUser(reg, strings.NewReader("alice\n"), &out).Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "alice", reg.gotName)
	assert.Equal(t, "secret", reg.gotPw)
	assert.Contains(t, out.String(), "Usuario alice creado (id u-1)")
}

func TestAddUser_NameGiven(t *testing.T) {
	stubPasswords(t, "secret", "secret")
	reg := &fakeRegistrar{}

	_, err := NewAddUser(reg, strings.NewReader(""), &bytes.Buffer{}).Run(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", reg.gotName)
}

func TestAddUser_Mismatch(t *testing.T) {
	stubPasswords(t, "secret", "secreT")
	reg := &fakeRegistrar{}

	_, err := NewAddUser(reg, strings.NewReader(""), &bytes.Buffer{}).Run(context.Background(), "bob")
	require.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Empty(t, reg.gotName)
}

func TestAddUser_RegisterErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   error
		msg  string
	}{
		{"validation", common.NewValidationError("El usuario es obligatorio"), common.ErrorValidation, "obligatorio"},
		{"exists", common.ErrorAlreadyExists, nil, "ya existe"},
		{"other", errors.New("db down"), nil, "db down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPasswords(t, "secret", "secret")
			_, err := NewAddUser(&fakeRegistrar{err: tt.err}, strings.NewReader(""), &bytes.Buffer{}).Run(context.Background(), "bob")
			require.Error(t, err)
			if tt.is != nil {
				require.ErrorIs(t, err, tt.is)
			}
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAddUser_PasswordReadError(t *testing.T) {
	stubPasswords(t)
	_, err := NewAddUser(&fakeRegistrar{}, strings.NewReader(""), &bytes.Buffer{}).Run(context.Background(), "bob")
	require.Error(t, err)
}
