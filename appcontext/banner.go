// Copyright (C) 2019-2020, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package appcontext

import (
	"io"
	"os"

	"github.com/xfali/xlog"
)

const (
	Version = "v0.1.0"

	neveBanner = `
  .\'/.   .-----.-----.--.--.-----.
->- x -<- |     |  -__|  |  |  -__|
  '/.\'   |__|__|_____|\___/|_____|
=================  (` + Version + `.EXT)
`
)

// printBanner 输出banner，bannerPath指定的文件读取失败时使用默认banner
func printBanner(w io.Writer, bannerPath string) {
	output := []byte(neveBanner)
	if bannerPath != "" {
		data, err := os.ReadFile(bannerPath)
		if err == nil {
			output = data
		}
	}
	_, _ = w.Write(output)
}

func selectWriter() io.Writer {
	for i := xlog.INFO; i <= xlog.DEBUG; i++ {
		w := xlog.GetOutputBySeverity(i)
		if w != nil {
			return w
		}
	}
	return os.Stdout
}
