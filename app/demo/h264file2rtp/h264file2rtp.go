// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v3/pkg/media/h264reader"
	"github.com/q191201771/naza/pkg/bitrate"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/naza/pkg/nazanet"
	"github.com/q191201771/rtp2nalu/pkg/avc"
	"github.com/q191201771/rtp2nalu/pkg/base"
	"github.com/q191201771/rtp2nalu/pkg/rtprtcp"
)

// 读取本地h264裸流文件，按帧率打包成rtp包，通过udp发送给rtp2nalu
//
// -payloader builtin: 使用本项目的打包逻辑，只产生Single NAL unit以及FU-A
// -payloader pion:    使用pion的H264Payloader，关闭STAP-A，sps和pps作为单独的nalu发送
//
// Usage of ./bin/h264file2rtp:
//   -i string
//         specify h264 annexb file
//   -o string
//         specify remote rtp addr, e.g. 127.0.0.1:5004
//   -l string
//         specify local addr, wait hello from rtp2nalu before sending if not empty
//   -fps int
//         frame rate (default 25)
//   -mtu int
//         max rtp packet size (default 1200)
//   -payloader string
//         builtin or pion (default "builtin")
//   -r    recursive send if reach end of file
// Example:
//   ./bin/h264file2rtp -i testdata/test.h264 -o 127.0.0.1:5004
//   ./bin/h264file2rtp -i testdata/test.h264 -l :6000 -r

var br bitrate.Bitrate

type builtinPayloader struct {
	packer *rtprtcp.RtpPackerPayloadAvc
}

func (p *builtinPayloader) Payload(mtu uint16, payload []byte) [][]byte {
	out, err := p.packer.PackAnnexb(payload, int(mtu))
	if err != nil {
		nazalog.Warnf("pack annexb failed. err=%+v", err)
	}
	return out
}

func main() {
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.AssertBehavior = nazalog.AssertFatal
	})
	defer nazalog.Sync()

	filename, raddr, laddr, fps, mtu, payloaderName, isRecursive := parseFlag()

	frames := readAllFrame(filename)
	if len(frames) == 0 {
		nazalog.Errorf("no frame in file. file=%s", filename)
		os.Exit(1)
	}

	conn, ruaddr := prepareConn(raddr, laddr)
	defer conn.Dispose()

	var payloader rtp.Payloader
	switch payloaderName {
	case "pion":
		// 接收端不支持STAP-A，sps和pps需要作为单独的nalu发送
		payloader = &codecs.H264Payloader{DisableStapA: true}
	default:
		payloader = &builtinPayloader{packer: rtprtcp.NewRtpPackerPayloadAvc()}
	}
	packetizer := rtp.NewPacketizer(uint16(mtu), base.RtpPacketTypeAvc, rand.Uint32(), payloader,
		rtp.NewRandomSequencer(), base.RtpClockRateAvc)

	br = bitrate.New()
	go func() {
		for {
			time.Sleep(5 * time.Second)
			nazalog.Debugf("bitrate=%dkbit/s", int(br.Rate()))
		}
	}()

	samples := uint32(base.RtpClockRateAvc / fps)
	interval := time.Second / time.Duration(fps)
	for round := 0; ; round++ {
		nazalog.Infof("send round. round=%d, frame num=%d", round, len(frames))
		for _, frame := range frames {
			for _, pkt := range packetizer.Packetize(frame, samples) {
				b, err := pkt.Marshal()
				nazalog.Assert(nil, err)
				if err = conn.Write2Addr(b, ruaddr); err != nil {
					nazalog.Errorf("write failed. err=%+v", err)
					return
				}
				br.Add(len(b))
			}
			time.Sleep(interval)
		}
		if !isRecursive {
			break
		}
	}
	nazalog.Info("bye.")
}

// readAllFrame 读取文件中的所有nalu，以vcl nalu为结尾，分组成annexb格式的帧
func readAllFrame(filename string) (frames [][]byte) {
	fp, err := os.Open(filename)
	if err != nil {
		nazalog.Errorf("open file failed. file=%s, err=%+v", filename, err)
		os.Exit(1)
	}
	defer fp.Close()

	reader, err := h264reader.NewReader(fp)
	nazalog.Assert(nil, err)

	var frame []byte
	naluNum := 0
	for {
		nal, err := reader.NextNAL()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			nazalog.Errorf("read nalu failed. nalu num=%d, err=%+v", naluNum, err)
			break
		}
		naluNum++

		frame = avc.AppendAnnexb(frame, nal.Data)
		switch nal.UnitType {
		case h264reader.NalUnitTypeCodedSliceNonIdr, h264reader.NalUnitTypeCodedSliceIdr:
			frames = append(frames, frame)
			frame = nil
		case h264reader.NalUnitTypeSPS:
			var ctx avc.Context
			if err := avc.ParseSps(nal.Data, &ctx); err == nil {
				nazalog.Infof("sps. profile=%d, level=%d, width=%d, height=%d", ctx.Profile, ctx.Level, ctx.Width, ctx.Height)
			}
		}
	}
	if len(frame) > 0 {
		frames = append(frames, frame)
	}
	nazalog.Infof("read all frame done. nalu num=%d, frame num=%d", naluNum, len(frames))
	return
}

func prepareConn(raddr, laddr string) (*nazanet.UdpConnection, *net.UDPAddr) {
	if laddr == "" {
		ruaddr, err := net.ResolveUDPAddr("udp", raddr)
		nazalog.Assert(nil, err)
		conn, err := nazanet.NewUdpConnection(func(option *nazanet.UdpConnectionOption) {
			option.LAddr = ":0"
		})
		nazalog.Assert(nil, err)
		return conn, ruaddr
	}

	conn, err := nazanet.NewUdpConnection(func(option *nazanet.UdpConnectionOption) {
		option.LAddr = laddr
	})
	nazalog.Assert(nil, err)

	helloCh := make(chan *net.UDPAddr, 1)
	go func() {
		_ = conn.RunLoop(func(b []byte, addr *net.UDPAddr, err error) bool {
			if err != nil {
				return false
			}
			nazalog.Infof("recv hello. raddr=%s, payload=%s", addr, b)
			select {
			case helloCh <- addr:
			default:
			}
			return true
		})
	}()
	nazalog.Infof("wait hello. laddr=%s", laddr)
	ruaddr := <-helloCh
	if raddr != "" {
		var err error
		ruaddr, err = net.ResolveUDPAddr("udp", raddr)
		nazalog.Assert(nil, err)
	}
	return conn, ruaddr
}

func parseFlag() (filename, raddr, laddr string, fps, mtu int, payloaderName string, isRecursive bool) {
	i := flag.String("i", "", "specify h264 annexb file")
	o := flag.String("o", "", "specify remote rtp addr, e.g. 127.0.0.1:5004")
	l := flag.String("l", "", "specify local addr, wait hello from rtp2nalu before sending if not empty")
	f := flag.Int("fps", 25, "frame rate")
	m := flag.Int("mtu", 1200, "max rtp packet size")
	p := flag.String("payloader", "builtin", "builtin or pion")
	r := flag.Bool("r", false, "recursive send if reach end of file")
	flag.Parse()
	if *i == "" || (*o == "" && *l == "") || *f <= 0 || *m <= base.RtpFixedHeaderLength+2 {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  ./bin/h264file2rtp -i testdata/test.h264 -o 127.0.0.1:5004
  ./bin/h264file2rtp -i testdata/test.h264 -l :6000 -r
`)
		os.Exit(1)
	}
	return *i, *o, *l, *f, *m, *p, *r
}
