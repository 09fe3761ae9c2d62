package admin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
)

var ErrPasswordMismatch = errors.New("las contraseñas no coinciden")

// Registrar is the part of services.UserService used here.
type Registrar interface {
	Register(ctx context.Context, userName string, password []byte) (*models.User, error)
}

type AddUser struct {
	users  Registrar
	reader *bufio.Reader
	out    io.Writer
}

func NewAddUser(users Registrar, in io.Reader, out io.Writer) *AddUser {
	return &AddUser{users: users, reader: bufio.NewReader(in), out: out}
}

// Run asks for the user name (unless given) and the password twice, then
// registers the account.
func (a *AddUser) Run(ctx context.Context, userName string) (*models.User, error) {
	if userName == "" {
		var err error
		userName, err = GetSimpleText(a.reader, "Usuario", a.out)
		if err != nil {
			return nil, err
		}
	}

	password, err := GetPassword("Contraseña: ", a.out)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword("Repite la contraseña: ", a.out)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return nil, ErrPasswordMismatch
	}

	u, err := a.users.Register(ctx, userName, password)
	if err != nil {
		var ve *common.ValidationError
		switch {
		case errors.As(err, &ve):
			return nil, ve
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, fmt.Errorf("el usuario %q ya existe", userName)
		}
		return nil, err
	}

	fmt.Fprintf(a.out, "Usuario %s creado (id %s)\n", u.UserName, u.ID)
	return u, nil
}
