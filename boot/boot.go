/*
 * Copyright (C) 2022, Xiongfa Li.
 * All rights reserved.
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

package boot

import (
	"context"
	"flag"
	"sync"

	"github.com/xfali/neve-ext"
	"github.com/xfali/neve-ext/appcontext"
	"github.com/xfali/neve-ext/bean"
	"github.com/xfali/xlog"
)

var (
	// 默认的配置路径
	ConfigPath = "application.yaml"

	creator func() neve.Application = defaultCreator
	gApp    neve.Application
	once    sync.Once
)

// 注册到全局Application
// 注册对象
// 支持注册
//
//	1、interface、struct指针，注册名称使用【类型名称】；
//	2、struct/interface的构造函数 func() TYPE 或 func() (TYPE, error)，注册名称使用【返回值的类型名称】。
//
// opts添加bean注册的配置，详情查看bean.RegisterOpt
func RegisterBean(o interface{}, opts ...bean.RegisterOpt) error {
	return instance().RegisterBean(o, opts...)
}

// 注册到全局Application
// 使用指定名称注册对象
// opts添加bean注册的配置，详情查看bean.RegisterOpt
func RegisterBeanByName(name string, o interface{}, opts ...bean.RegisterOpt) error {
	return instance().RegisterBeanByName(name, o, opts...)
}

// 添加bean定义注册器，例如binding.Registrar
func AddRegistrar(r appcontext.Registrar) error {
	return instance().AddRegistrar(r)
}

// 自定义启动的Application
// 必须在注册对象和Run之前调用
func Customize(app neve.Application) {
	creator = func() neve.Application {
		return app
	}
}

func defaultCreator() neve.Application {
	if !flag.Parsed() {
		flag.StringVar(&ConfigPath, "f", ConfigPath, "Application configuration file path.")
		flag.Parse()
	}
	app, err := neve.NewFileConfigApplication(ConfigPath)
	if err != nil {
		xlog.GetLogger().Fatalln("load config file failed: ", err)
	}
	return app
}

func instance() neve.Application {
	once.Do(func() {
		gApp = creator()
	})
	return gApp
}

// 启动全局Application，直到收到退出信号
func Run() error {
	return instance().Run()
}

// 启动全局Application，直到收到退出信号或ctx Done
func RunContext(ctx context.Context) error {
	return instance().RunContext(ctx)
}
