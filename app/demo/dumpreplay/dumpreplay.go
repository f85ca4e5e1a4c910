// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtp2nalu/pkg/avc"
	"github.com/q191201771/rtp2nalu/pkg/base"
	"github.com/q191201771/rtp2nalu/pkg/record"
	"github.com/q191201771/rtp2nalu/pkg/rtprtcp"
)

// 离线回放rtp2nalu录制的dump文件，还原出nalu，可选写入.h264以及.ts文件
//
// 用于复现、分析线上收流遇到的问题
//
// Usage of ./bin/dumpreplay:
//   -i string
//         specify dump file
//   -o string
//         specify output h264 annexb file
//   -t string
//         specify output mpegts file
//   -pt int
//         rtp payload type (default 96)
// Example:
//   ./bin/dumpreplay -i ./record/rtp2nalu-20260101120000.dump -o out.h264 -t out.ts

func main() {
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.AssertBehavior = nazalog.AssertFatal
	})
	defer nazalog.Sync()

	dumpFilename, annexbFilename, mpegtsFilename, pt := parseFlag()

	var sinks []rtprtcp.INaluSink
	var annexbWriter *record.AnnexbFileWriter
	var mpegtsWriter *record.MpegtsFileWriter
	if annexbFilename != "" {
		annexbWriter = record.NewAnnexbFileWriter()
		err := annexbWriter.Open(annexbFilename)
		nazalog.Assert(nil, err)
		sinks = append(sinks, annexbWriter)
	}
	if mpegtsFilename != "" {
		mpegtsWriter = record.NewMpegtsFileWriter()
		err := mpegtsWriter.Open(mpegtsFilename)
		nazalog.Assert(nil, err)
		sinks = append(sinks, mpegtsWriter)
	}

	naluTypeCount := make(map[uint8]int)
	unpacker := rtprtcp.NewRtpUnpackerAvc(rtprtcp.NaluSinkFunc(func(nalu []byte, timestamp uint32) {
		t := avc.ParseNaluType(nalu[0])
		naluTypeCount[t]++
		nazalog.Tracef("nalu. type=%s, ts=%d, len=%d", avc.ParseNaluTypeReadable(nalu[0]), timestamp, len(nalu))
		for _, sink := range sinks {
			sink.OnNalu(nalu, timestamp)
		}
	}), func(option *rtprtcp.RtpUnpackerAvcOption) {
		option.PayloadType = uint8(pt)
	})
	seqStat := rtprtcp.NewRtpSeqStat()

	df := base.NewDumpFile()
	err := df.OpenToRead(dumpFilename)
	nazalog.Assert(nil, err)
	defer df.Close()

	msgNum := 0
	for {
		m, err := df.ReadOneMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			nazalog.Errorf("read dump file failed. msg num=%d, err=%+v", msgNum, err)
			break
		}
		msgNum++
		if m.Typ != base.DumpTypeRtpAvcData {
			nazalog.Warnf("skip message. %s", m.DebugString())
			continue
		}

		if h, err := rtprtcp.ParseRtpHeader(m.Body); err == nil {
			seqStat.Feed(h)
		}
		if err = unpacker.FeedRaw(m.Body); err != nil {
			nazalog.Debugf("drop packet. msg=%d, err=%+v", msgNum, err)
		}
	}

	if annexbWriter != nil {
		_ = annexbWriter.Dispose()
	}
	if mpegtsWriter != nil {
		_ = mpegtsWriter.Dispose()
	}

	nazalog.Infof("replay done. msg num=%d", msgNum)
	nazalog.Infof("unpack stat. %+v", unpacker.GetStat())
	nazalog.Infof("seq stat. %+v", seqStat.Snapshot())
	for t, n := range naluTypeCount {
		nazalog.Infof("nalu type. type=%s(%d), num=%d", avc.NaluTypeMapping[t], t, n)
	}
}

func parseFlag() (dumpFilename, annexbFilename, mpegtsFilename string, pt int) {
	i := flag.String("i", "", "specify dump file")
	o := flag.String("o", "", "specify output h264 annexb file")
	t := flag.String("t", "", "specify output mpegts file")
	p := flag.Int("pt", base.RtpPacketTypeAvc, "rtp payload type")
	flag.Parse()
	if *i == "" || *p < 0 || *p > 127 {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  ./bin/dumpreplay -i ./record/rtp2nalu-20260101120000.dump -o out.h264 -t out.ts
`)
		os.Exit(1)
	}
	return *i, *o, *t, *p
}
