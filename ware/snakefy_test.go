package ware_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/warekit/ware"
)

func Test_Snakefy(t *testing.T) {
	testCases := map[string]string{
		"":              "",
		"user":          "user",
		"UserAccount":   "user_account",
		"userAccountID": "user_account_i_d",
		"HTTPServer":    "h_t_t_p_server",
		"ÄrgerMitÖl":    "ärger_mit_öl",
	}

	for camel, expected := range testCases {
		t.Run(camel, func(t *testing.T) {
			assert.Equal(t, expected, ware.Snakefy(camel))
		})
	}
}
