// Copyright (C) 2019-2021, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package errors

import (
	"strings"
)

type ErrList interface {
	Empty() bool

	AddError(e error) ErrList

	Error() string
}

// Errors 收集多个错误，忽略nil
type Errors []error

func (es Errors) Empty() bool {
	return len(es) == 0
}

func (es *Errors) AddError(e error) ErrList {
	if e != nil {
		*es = append(*es, e)
	}
	return es
}

// ErrorOrNil 没有错误时返回nil，避免返回非nil的空列表
func (es Errors) ErrorOrNil() error {
	if es.Empty() {
		return nil
	}
	return es
}

// Unwrap 支持errors.Is/As遍历所有错误
func (es Errors) Unwrap() []error {
	return es
}

func (es Errors) Error() string {
	buf := strings.Builder{}
	for i := range es {
		buf.WriteString(es[i].Error())
		if i < len(es)-1 {
			buf.WriteString(",")
		}
	}
	return buf.String()
}
