// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/rtp2nalu/pkg/base"
)

var (
	config *Config
	sm     *ServerManager
)

func GetConfig() *Config {
	return config
}

// Entry 读取配置，阻塞运行直到接收会话结束
func Entry(confFile string) {
	Init(confFile)
	RunLoop()
}

func Init(confFile string) {
	config = LoadConfAndInitLog(confFile)

	dir, _ := os.Getwd()
	Log.Infof("wd: %s", dir)
	Log.Infof("args: %s", strings.Join(os.Args, " "))
	Log.Infof("bininfo: %s", bininfo.StringifySingleLine())
	Log.Infof("version: %s", base.Rtp2NaluFullInfo)
	Log.Infof("github: %s", base.Rtp2NaluGithubSite)

	if config.RecordConfig.EnableAnnexb {
		mkdirRecordPath(config.RecordConfig.AnnexbOutPath)
	}
	if config.RecordConfig.EnableMpegts {
		mkdirRecordPath(config.RecordConfig.MpegtsOutPath)
	}
	if config.RecordConfig.EnableDump {
		mkdirRecordPath(config.RecordConfig.DumpOutPath)
	}
}

func RunLoop() {
	sm = NewServerManager(config)

	if config.PprofConfig.Enable {
		go runWebPprof(config.PprofConfig.Addr)
	}
	go runSignalHandler(func() {
		sm.Dispose()
	})

	err := sm.RunLoop()
	Log.Infof("server manager loop break. err=%+v", err)
}

func Dispose() {
	if sm != nil {
		sm.Dispose()
	}
}

func runWebPprof(addr string) {
	Log.Infof("start web pprof listen. addr=%s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		Log.Error(err)
		return
	}
}
