// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/q191201771/rtp2nalu/pkg/base"
	"github.com/q191201771/rtp2nalu/pkg/record"
	"github.com/q191201771/rtp2nalu/pkg/recv"
	"github.com/q191201771/rtp2nalu/pkg/rtprtcp"
)

// ServerManager 组装接收会话、nalu观察者以及录制文件
type ServerManager struct {
	config *Config

	observer     *NaluObserver
	session      *recv.RtpRecvSession
	annexbWriter *record.AnnexbFileWriter
	mpegtsWriter *record.MpegtsFileWriter

	exitChan    chan struct{}
	disposeOnce sync.Once
}

type ServerStat struct {
	Session recv.RtpRecvSessionStat `json:"session"`
	Nalu    NaluObserverStat        `json:"nalu"`
}

// NewServerManager
//
// @param sinks: 业务方额外的nalu下游，可以为空
func NewServerManager(config *Config, sinks ...rtprtcp.INaluSink) *ServerManager {
	sm := &ServerManager{
		config:   config,
		observer: NewNaluObserver(sinks...),
		exitChan: make(chan struct{}),
	}

	var dumpFilename string
	now := time.Now()
	if config.RecordConfig.EnableDump {
		dumpFilename = makeRecordFilename(config.RecordConfig.DumpOutPath, now, "dump")
	}

	sm.session = recv.NewRtpRecvSession(sm.observer, func(option *recv.RtpRecvSessionOption) {
		option.LAddr = config.RtpConfig.ListenAddr
		option.RemoteAddr = config.RtpConfig.RemoteAddr
		option.HelloPayload = config.RtpConfig.HelloPayload
		option.PayloadType = uint8(config.RtpConfig.PayloadType)
		option.MaxReadPacketSize = config.RtpConfig.MaxReadPacketSize
		option.DumpFilename = dumpFilename
	})

	if config.RecordConfig.EnableAnnexb {
		sm.annexbWriter = record.NewAnnexbFileWriter()
		filename := makeRecordFilename(config.RecordConfig.AnnexbOutPath, now, "h264")
		if err := sm.annexbWriter.Open(filename); err != nil {
			Log.Errorf("open annexb record file failed. file=%s, err=%+v", filename, err)
			sm.annexbWriter = nil
		} else {
			sm.observer.AddSink(sm.annexbWriter)
		}
	}
	if config.RecordConfig.EnableMpegts {
		sm.mpegtsWriter = record.NewMpegtsFileWriter()
		filename := makeRecordFilename(config.RecordConfig.MpegtsOutPath, now, "ts")
		if err := sm.mpegtsWriter.Open(filename); err != nil {
			Log.Errorf("open mpegts record file failed. file=%s, err=%+v", filename, err)
			sm.mpegtsWriter = nil
		} else {
			sm.observer.AddSink(sm.mpegtsWriter)
		}
	}

	return sm
}

// RunLoop 阻塞直到接收会话结束
func (sm *ServerManager) RunLoop() error {
	if err := sm.session.Listen(); err != nil {
		sm.disposeRecord()
		return err
	}

	if sm.config.StatConfig.IntervalSec > 0 {
		go sm.runStatLoop(time.Duration(sm.config.StatConfig.IntervalSec) * time.Second)
	}

	err := sm.session.RunLoop()

	// 录制文件的写入都发生在接收协程，所以等接收协程结束后再关闭
	sm.disposeRecord()
	return err
}

func (sm *ServerManager) Dispose() {
	sm.disposeOnce.Do(func() {
		Log.Infof("dispose server manager.")
		close(sm.exitChan)
		if err := sm.session.Dispose(); err != nil {
			Log.Warnf("dispose session failed. err=%+v", err)
		}
	})
}

func (sm *ServerManager) GetStat() ServerStat {
	return ServerStat{
		Session: sm.session.GetStat(),
		Nalu:    sm.observer.GetStat(),
	}
}

func (sm *ServerManager) runStatLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-sm.exitChan:
			return
		case <-t.C:
			stat := sm.GetStat()
			Log.Infof("[%s] stat. read=%d(%dB), bitrate=%dkbit/s, nalu=%d, idr=%d, drop=%+v, seq=%+v",
				sm.session.UniqueKey(), stat.Session.ReadPacketNum, stat.Session.ReadBytes, stat.Session.BitrateKbits,
				stat.Nalu.NaluNum, stat.Nalu.IdrNum, stat.Session.Unpack, stat.Session.Seq)
		}
	}
}

func (sm *ServerManager) disposeRecord() {
	if sm.annexbWriter != nil {
		if err := sm.annexbWriter.Dispose(); err != nil {
			Log.Warnf("dispose annexb record failed. err=%+v", err)
		}
		sm.annexbWriter = nil
	}
	if sm.mpegtsWriter != nil {
		if err := sm.mpegtsWriter.Dispose(); err != nil {
			Log.Warnf("dispose mpegts record failed. err=%+v", err)
		}
		sm.mpegtsWriter = nil
	}
}

func makeRecordFilename(outPath string, t time.Time, ext string) string {
	return filepath.Join(outPath, fmt.Sprintf("%s-%s.%s", base.Rtp2NaluLibraryName, t.Format("20060102150405"), ext))
}

func mkdirRecordPath(path string) {
	if err := os.MkdirAll(path, 0777); err != nil {
		Log.Errorf("record mkdir error. path=%s, err=%+v", path, err)
	}
}
