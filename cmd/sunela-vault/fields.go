package main

import (
	"fmt"

	"github.com/sunela/vault/pkg/vault"
)

var fieldNames = map[string]vault.FieldType{
	"user":         vault.FieldUser,
	"email":        vault.FieldEmail,
	"password":     vault.FieldPassword,
	"password2":    vault.FieldPassword2,
	"hotp-secret":  vault.FieldHOTPSecret,
	"hotp-counter": vault.FieldHOTPCounter,
	"totp-secret":  vault.FieldTOTPSecret,
	"comment":      vault.FieldComment,
}

var fieldTypeNames = func() map[vault.FieldType]string {
	m := make(map[vault.FieldType]string, len(fieldNames))
	for name, t := range fieldNames {
		m[t] = name
	}
	return m
}()

func parseFieldName(name string) (vault.FieldType, error) {
	t, ok := fieldNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown field %q (want one of user, email, password, password2, hotp-secret, hotp-counter, totp-secret, comment)", name)
	}
	return t, nil
}

func fieldDisplayName(t vault.FieldType) string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("field-%d", t)
}
