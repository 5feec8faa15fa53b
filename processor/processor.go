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
	"github.com/xfali/fig"
	"github.com/xfali/neve-ext/bean"
)

// Processor 在context启动时处理已创建的bean。
// 启动顺序：Registrar注册定义 -> PreInstantiate创建单例 -> Aware注入 -> Classify -> BeanAfterSet -> Process。
// 通过RegisterBean注册的Processor同时是bean，由注册表销毁；通过AddProcessor添加的由context在Close时销毁。
type Processor interface {
	// 绑定应用配置及bean定义注册表。
	// context Init时调用，Init之后添加的Processor在添加时立即调用。
	Init(conf fig.Properties, registry bean.Registry) error

	// 按注册表顺序对每个已创建的bean调用一次，只做归类，返回是否接收该bean。
	// 归类错误会被记录但不会中断启动。
	bean.Classifier

	// 所有bean归类且BeanAfterSet之后调用，返回error时启动失败。
	// 耗时操作应在其他协程中进行。
	Process() error

	bean.Disposable
}

// Adapter 空实现，嵌入后只需实现关心的方法
type Adapter struct{}

func (Adapter) Init(conf fig.Properties, registry bean.Registry) error {
	return nil
}

func (Adapter) Classify(o interface{}) (bool, error) {
	return false, nil
}

func (Adapter) Process() error {
	return nil
}

func (Adapter) BeanDestroy() error {
	return nil
}
