// Copyright (C) 2019-2020, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package processor

import (
	"reflect"

	"github.com/xfali/fig"
	"github.com/xfali/neve-ext/bean"
)

// ValueProcessor 使用fig将配置值填充到bean中带有value tag的字段
type ValueProcessor struct {
	Adapter

	conf      fig.Properties
	tagPxName string
	tagName   string
}

type Opt func(processor *ValueProcessor)

func OptSetValueTag(tagPxName, tagName string) Opt {
	return func(processor *ValueProcessor) {
		if tagName != "" {
			if tagPxName == "" {
				tagPxName = fig.TagPrefixName
			}
			processor.tagName = tagName
			processor.tagPxName = tagPxName
		}
	}
}

func NewValueProcessor(opts ...Opt) *ValueProcessor {
	ret := &ValueProcessor{}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *ValueProcessor) Init(conf fig.Properties, registry bean.Registry) error {
	p.conf = conf
	return nil
}

// Classify 仅处理结构体指针，其他bean直接跳过
func (p *ValueProcessor) Classify(o interface{}) (bool, error) {
	if p.conf == nil || !isStructPtr(o) {
		return false, nil
	}
	if p.tagName == "" {
		return true, fig.Fill(p.conf, o)
	} else {
		return true, fig.FillExWithTagName(p.conf, o, false, p.tagPxName, p.tagName)
	}
}

func isStructPtr(o interface{}) bool {
	v := reflect.ValueOf(o)
	return v.Kind() == reflect.Ptr && !v.IsNil() && v.Elem().Kind() == reflect.Struct
}
