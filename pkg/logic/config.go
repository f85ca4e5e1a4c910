// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/naza/pkg/nazajson"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtp2nalu/pkg/base"
)

const ConfVersion = "v0.1.0"

const (
	defaultStatIntervalSec = 5
	defaultRecordOutPath   = "./record/"
	defaultLogFilename     = "./logs/rtp2nalu.log"
	defaultPprofAddr       = ":8084"
)

type Config struct {
	ConfVersion  string         `json:"conf_version"`
	RtpConfig    RtpConfig      `json:"rtp"`
	RecordConfig RecordConfig   `json:"record"`
	StatConfig   StatConfig     `json:"stat"`
	LogConfig    nazalog.Option `json:"log"`
	PprofConfig  PprofConfig    `json:"pprof"`
}

type RtpConfig struct {
	ListenAddr        string `json:"listen_addr"`
	RemoteAddr        string `json:"remote_addr"`
	HelloPayload      string `json:"hello_payload"`
	PayloadType       int    `json:"payload_type"`
	MaxReadPacketSize int    `json:"max_read_packet_size"`
}

type RecordConfig struct {
	EnableAnnexb  bool   `json:"enable_annexb"`
	AnnexbOutPath string `json:"annexb_out_path"`
	EnableMpegts  bool   `json:"enable_mpegts"`
	MpegtsOutPath string `json:"mpegts_out_path"`
	EnableDump    bool   `json:"enable_dump"`
	DumpOutPath   string `json:"dump_out_path"`
}

type StatConfig struct {
	IntervalSec int `json:"interval_sec"`
}

type PprofConfig struct {
	Enable bool   `json:"enable"`
	Addr   string `json:"addr"`
}

// LoadConfAndInitLog 读取配置文件并初始化日志，失败时直接退出程序
func LoadConfAndInitLog(confFile string) *Config {
	rawContent, err := os.ReadFile(confFile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "read conf file failed. file=%s err=%+v\n", confFile, err)
		os.Exit(1)
	}
	config, err := ParseConf(rawContent)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "parse conf file failed. file=%s err=%+v\n", confFile, err)
		os.Exit(1)
	}

	// 初始化日志，注意，这一步尽量提前，使得后续的日志内容按我们的日志配置输出
	if err = nazalog.Init(func(option *nazalog.Option) {
		*option = config.LogConfig
	}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "initial log failed. err=%+v\n", err)
		os.Exit(1)
	}
	Log.Info("initial log succ.")

	if config.ConfVersion != ConfVersion {
		Log.Warnf("config version invalid. conf version of %s is %s while code is %s",
			confFile, config.ConfVersion, ConfVersion)
	}

	Log.Infof("load conf file succ. file=%s, raw content=%s parsed=%+v", confFile, rawContent, config)
	return config
}

// ParseConf 解析json格式的配置内容，不存在的配置项使用默认值
func ParseConf(rawContent []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(rawContent, &config); err != nil {
		return nil, nazaerrors.Wrap(err)
	}

	j, err := nazajson.New(rawContent)
	if err != nil {
		return nil, nazaerrors.Wrap(err)
	}

	// rtp
	if !j.Exist("rtp.listen_addr") {
		config.RtpConfig.ListenAddr = fmt.Sprintf(":%d", base.RtpDefaultPort)
	}
	if !j.Exist("rtp.hello_payload") {
		config.RtpConfig.HelloPayload = "hello"
	}
	if !j.Exist("rtp.payload_type") {
		config.RtpConfig.PayloadType = base.RtpPacketTypeAvc
	}
	if !j.Exist("rtp.max_read_packet_size") {
		config.RtpConfig.MaxReadPacketSize = 2048
	}

	// record
	if !j.Exist("record.annexb_out_path") {
		config.RecordConfig.AnnexbOutPath = defaultRecordOutPath
	}
	if !j.Exist("record.mpegts_out_path") {
		config.RecordConfig.MpegtsOutPath = defaultRecordOutPath
	}
	if !j.Exist("record.dump_out_path") {
		config.RecordConfig.DumpOutPath = defaultRecordOutPath
	}

	// stat
	if !j.Exist("stat.interval_sec") {
		config.StatConfig.IntervalSec = defaultStatIntervalSec
	}

	// log
	if !j.Exist("log.level") {
		config.LogConfig.Level = nazalog.LevelDebug
	}
	if !j.Exist("log.filename") {
		config.LogConfig.Filename = defaultLogFilename
	}
	if !j.Exist("log.is_to_stdout") {
		config.LogConfig.IsToStdout = true
	}
	if !j.Exist("log.is_rotate_daily") {
		config.LogConfig.IsRotateDaily = true
	}
	if !j.Exist("log.short_file_flag") {
		config.LogConfig.ShortFileFlag = true
	}
	if !j.Exist("log.timestamp_flag") {
		config.LogConfig.TimestampFlag = true
	}
	if !j.Exist("log.timestamp_with_ms_flag") {
		config.LogConfig.TimestampWithMsFlag = true
	}
	if !j.Exist("log.level_flag") {
		config.LogConfig.LevelFlag = true
	}
	if !j.Exist("log.assert_behavior") {
		config.LogConfig.AssertBehavior = nazalog.AssertError
	}

	// pprof
	if !j.Exist("pprof.addr") {
		config.PprofConfig.Addr = defaultPprofAddr
	}

	if err = config.check(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) check() error {
	if c.RtpConfig.ListenAddr == "" {
		return fmt.Errorf("%w. rtp.listen_addr is empty", base.ErrConfigInvalid)
	}
	if c.RtpConfig.PayloadType < 0 || c.RtpConfig.PayloadType > 127 {
		return fmt.Errorf("%w. rtp.payload_type=%d", base.ErrConfigInvalid, c.RtpConfig.PayloadType)
	}
	if c.RtpConfig.MaxReadPacketSize <= base.RtpFixedHeaderLength {
		return fmt.Errorf("%w. rtp.max_read_packet_size=%d", base.ErrConfigInvalid, c.RtpConfig.MaxReadPacketSize)
	}
	if c.StatConfig.IntervalSec < 0 {
		return fmt.Errorf("%w. stat.interval_sec=%d", base.ErrConfigInvalid, c.StatConfig.IntervalSec)
	}
	return nil
}
