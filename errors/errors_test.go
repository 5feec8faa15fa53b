// Copyright (C) 2019-2021, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package errors

import (
	"errors"
	"testing"
)

func TestErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var errs Errors
		errs.AddError(nil)
		if !errs.Empty() {
			t.Fatal("expect empty")
		}
		if errs.ErrorOrNil() != nil {
			t.Fatal("expect nil error")
		}
	})

	t.Run("join", func(t *testing.T) {
		target := errors.New("b")
		var errs Errors
		errs.AddError(errors.New("a")).AddError(target)
		err := errs.ErrorOrNil()
		if err == nil {
			t.Fatal("expect error")
		}
		if err.Error() != "a,b" {
			t.Fatal("expect a,b but get ", err.Error())
		}
		if !errors.Is(err, target) {
			t.Fatal("expect errors.Is match")
		}
	})
}
