// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package recv

import (
	"fmt"
	"net"
	"sync"

	"github.com/q191201771/naza/pkg/bitrate"
	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/naza/pkg/nazanet"
	"github.com/q191201771/rtp2nalu/pkg/base"
	"github.com/q191201771/rtp2nalu/pkg/rtprtcp"
)

// RtpRecvSession 在一个udp端口上接收rtp h264流，还原出的nalu交给业务方的sink
//
// 所有的读取、解包、回调都发生在 RunLoop 所在的协程
type RtpRecvSession struct {
	uniqueKey string
	option    RtpRecvSessionOption

	unpacker *rtprtcp.RtpUnpackerAvc
	seqStat  *rtprtcp.RtpSeqStat
	logDump  base.LogDump

	conn *nazanet.UdpConnection

	dumpMutex sync.Mutex
	dumpFile  *base.DumpFile

	readPacketNum nazaatomic.Uint64
	readBytes     nazaatomic.Uint64

	brMutex sync.Mutex
	br      bitrate.Bitrate

	disposeOnce sync.Once
	disposed    nazaatomic.Bool
}

type RtpRecvSessionOption struct {
	// LAddr 本地监听地址
	LAddr string

	// RemoteAddr 发送端地址，不为空时，开始接收前先向该地址发送 HelloPayload，用于打通nat或者通知发送端开始推流
	RemoteAddr string

	HelloPayload string

	PayloadType uint8

	MaxReadPacketSize int

	// DumpFilename 不为空时，将收到的所有原始udp包写入该文件
	DumpFilename string
}

var defaultRtpRecvSessionOption = RtpRecvSessionOption{
	LAddr:             fmt.Sprintf(":%d", base.RtpDefaultPort),
	RemoteAddr:        "",
	HelloPayload:      "hello",
	PayloadType:       base.RtpPacketTypeAvc,
	MaxReadPacketSize: 2048,
	DumpFilename:      "",
}

type ModRtpRecvSessionOption func(option *RtpRecvSessionOption)

type RtpRecvSessionStat struct {
	ReadPacketNum uint64                     `json:"read_packet_num"`
	ReadBytes     uint64                     `json:"read_bytes"`
	BitrateKbits  int                        `json:"bitrate_kbits"`
	Unpack        rtprtcp.UnpackStatSnapshot `json:"unpack"`
	Seq           rtprtcp.RtpSeqStatSnapshot `json:"seq"`
}

func NewRtpRecvSession(sink rtprtcp.INaluSink, modOptions ...ModRtpRecvSessionOption) *RtpRecvSession {
	option := defaultRtpRecvSessionOption
	for _, fn := range modOptions {
		fn(&option)
	}

	uk := base.GenUkRtpRecvSession()
	s := &RtpRecvSession{
		uniqueKey: uk,
		option:    option,
		unpacker: rtprtcp.NewRtpUnpackerAvc(sink, func(o *rtprtcp.RtpUnpackerAvcOption) {
			o.PayloadType = option.PayloadType
		}),
		seqStat: rtprtcp.NewRtpSeqStat(),
		logDump: base.NewLogDump(Log, base.RecvSessionLogDumpDebugMaxNum),
		br:      bitrate.New(),
	}
	Log.Infof("[%s] lifecycle new rtp recv session. session=%p, laddr=%s, raddr=%s, pt=%d",
		uk, s, option.LAddr, option.RemoteAddr, option.PayloadType)
	return s
}

// Listen 创建udp连接，如果配置了dump文件，同时打开dump文件
func (s *RtpRecvSession) Listen() (err error) {
	if s.disposed.Load() {
		return base.ErrRecvSessionDisposed
	}

	s.conn, err = nazanet.NewUdpConnection(func(option *nazanet.UdpConnectionOption) {
		option.LAddr = s.option.LAddr
		option.RAddr = s.option.RemoteAddr
		option.MaxReadPacketSize = s.option.MaxReadPacketSize
	})
	if err != nil {
		return err
	}

	if s.option.DumpFilename != "" {
		df := base.NewDumpFile()
		if err = df.OpenToWrite(s.option.DumpFilename); err != nil {
			_ = s.conn.Dispose()
			return err
		}
		s.dumpMutex.Lock()
		s.dumpFile = df
		s.dumpMutex.Unlock()
		Log.Infof("[%s] open dump file. file=%s", s.uniqueKey, s.option.DumpFilename)
	}

	Log.Infof("[%s] start udp listen. addr=%s", s.uniqueKey, s.option.LAddr)
	return nil
}

// RunLoop 阻塞直到读取发生错误，或者调用了 Dispose
func (s *RtpRecvSession) RunLoop() error {
	if s.disposed.Load() {
		return base.ErrRecvSessionDisposed
	}
	if s.conn == nil {
		return base.ErrRecvSessionNotListened
	}

	if s.option.RemoteAddr != "" {
		if err := s.conn.Write([]byte(s.option.HelloPayload)); err != nil {
			Log.Warnf("[%s] send hello failed. raddr=%s, err=%+v", s.uniqueKey, s.option.RemoteAddr, err)
		} else {
			Log.Infof("[%s] send hello. raddr=%s, payload=%s", s.uniqueKey, s.option.RemoteAddr, s.option.HelloPayload)
		}
	}

	var readErr error
	err := s.conn.RunLoop(func(b []byte, raddr *net.UDPAddr, err error) bool {
		if err != nil {
			readErr = err
			return false
		}
		s.onReadUdpPacket(b, raddr)
		return true
	})
	if err == nil {
		err = readErr
	}
	Log.Infof("[%s] run loop done. err=%+v", s.uniqueKey, err)
	return err
}

// Dispose 可以重复调用，也可以在其他协程调用
func (s *RtpRecvSession) Dispose() (err error) {
	s.disposeOnce.Do(func() {
		s.disposed.Store(true)
		Log.Infof("[%s] lifecycle dispose rtp recv session.", s.uniqueKey)
		if s.conn != nil {
			err = s.conn.Dispose()
		}

		s.dumpMutex.Lock()
		if s.dumpFile != nil {
			if e := s.dumpFile.Close(); err == nil {
				err = e
			}
			s.dumpFile = nil
		}
		s.dumpMutex.Unlock()
	})
	return
}

// GetStat 可以在其他协程调用
func (s *RtpRecvSession) GetStat() RtpRecvSessionStat {
	s.brMutex.Lock()
	rate := s.br.Rate()
	s.brMutex.Unlock()

	return RtpRecvSessionStat{
		ReadPacketNum: s.readPacketNum.Load(),
		ReadBytes:     s.readBytes.Load(),
		BitrateKbits:  int(rate),
		Unpack:        s.unpacker.GetStat(),
		Seq:           s.seqStat.Snapshot(),
	}
}

func (s *RtpRecvSession) UniqueKey() string {
	return s.uniqueKey
}

func (s *RtpRecvSession) onReadUdpPacket(b []byte, raddr *net.UDPAddr) {
	s.readPacketNum.Increment()
	s.readBytes.Add(uint64(len(b)))
	s.brMutex.Lock()
	s.br.Add(len(b))
	s.brMutex.Unlock()

	s.dumpMutex.Lock()
	if s.dumpFile != nil {
		if err := s.dumpFile.WriteWithType(b, base.DumpTypeRtpAvcData); err != nil {
			Log.Errorf("[%s] write dump file failed, stop dump. err=%+v", s.uniqueKey, err)
			_ = s.dumpFile.Close()
			s.dumpFile = nil
		}
	}
	s.dumpMutex.Unlock()

	h, err := rtprtcp.ParseRtpHeader(b)
	if err == nil {
		s.seqStat.Feed(h)
	}

	// 出错的包直接丢弃，继续处理后续的包
	if err = s.unpacker.FeedRaw(b); err != nil {
		if s.logDump.ShouldDump() {
			s.logDump.Outf("[%s] drop packet. raddr=%s, len=%d, err=%+v, hex=%s",
				s.uniqueKey, raddr, len(b), err, base.HexPrefix(b, 32))
		}
	}
}
