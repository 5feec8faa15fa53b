/*
 * Copyright 2022 Xiongfa Li.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package processor

import (
	"testing"
)

type countProcessor struct {
	Adapter
	count int
}

func (p *countProcessor) Process() error {
	p.count++
	return nil
}

func TestAdapter(t *testing.T) {
	var p Processor = &countProcessor{}
	if err := p.Init(nil, nil); err != nil {
		t.Fatal(err)
	}
	if ok, err := p.Classify(&countProcessor{}); ok || err != nil {
		t.Fatal("expect not classified")
	}
	if err := p.Process(); err != nil {
		t.Fatal(err)
	}
	if p.(*countProcessor).count != 1 {
		t.Fatal("expect overridden Process called")
	}
	if err := p.BeanDestroy(); err != nil {
		t.Fatal(err)
	}

	var _ Processor = NewValueProcessor()
}
