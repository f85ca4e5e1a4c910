// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic_test

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazanet"
	"github.com/q191201771/rtp2nalu/pkg/avc"
	"github.com/q191201771/rtp2nalu/pkg/logic"
	"github.com/q191201771/rtp2nalu/pkg/rtprtcp"
)

var (
	// baseline, level 3.1, 1280x720
	testSps = []byte{0x67, 0x42, 0xc0, 0x1f, 0xed, 0x00, 0xa0, 0x0b, 0x72}
	testPps = []byte{0x68, 0xce, 0x3c, 0x80}
)

func makeNalu(header byte, size int) []byte {
	b := make([]byte, size)
	b[0] = header
	for i := 1; i < size; i++ {
		b[i] = byte(i % 251)
	}
	return b
}

func TestNaluObserver(t *testing.T) {
	var got1, got2 [][]byte
	o := logic.NewNaluObserver(rtprtcp.NaluSinkFunc(func(nalu []byte, timestamp uint32) {
		got1 = append(got1, nalu)
	}))
	o.AddSink(rtprtcp.NaluSinkFunc(func(nalu []byte, timestamp uint32) {
		got2 = append(got2, nalu)
	}))

	idr := makeNalu(0x65, 100)
	slice := makeNalu(0x41, 50)
	o.OnNalu(testSps, 0)
	o.OnNalu(testPps, 0)
	o.OnNalu(idr, 0)
	o.OnNalu(slice, 3000)
	o.OnNalu(testSps, 6000)

	expected := [][]byte{testSps, testPps, idr, slice, testSps}
	assert.Equal(t, expected, got1)
	assert.Equal(t, expected, got2)

	stat := o.GetStat()
	assert.Equal(t, uint64(5), stat.NaluNum)
	assert.Equal(t, uint64(1), stat.IdrNum)
	assert.Equal(t, uint64(2), stat.SpsNum)
	assert.Equal(t, uint64(len(testSps)*2+len(testPps)+100+50), stat.NaluSize)

	assert.Equal(t, avc.Context{Profile: 66, Level: 31, Width: 1280, Height: 720}, o.VideoContext())
}

func TestServerManager(t *testing.T) {
	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("rtp2nalu_logic_test_%d", time.Now().UnixNano()))
	err := os.MkdirAll(outPath, 0777)
	assert.Equal(t, nil, err)
	defer os.RemoveAll(outPath)

	pool := nazanet.NewAvailUdpConnPool(20480, 30720)
	port, err := pool.Peek()
	assert.Equal(t, nil, err)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	config, err := logic.ParseConf([]byte(fmt.Sprintf(`{
  "rtp": {"listen_addr": "%s"},
  "record": {"enable_annexb": true, "annexb_out_path": "%s", "enable_mpegts": true, "mpegts_out_path": "%s"},
  "stat": {"interval_sec": 1}
}`, addr, outPath, outPath)))
	assert.Equal(t, nil, err)

	naluCh := make(chan []byte, 64)
	sm := logic.NewServerManager(config, rtprtcp.NaluSinkFunc(func(nalu []byte, timestamp uint32) {
		naluCh <- nalu
	}))
	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- sm.RunLoop()
	}()

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	assert.Equal(t, nil, err)
	sender, err := nazanet.NewUdpConnection(func(option *nazanet.UdpConnectionOption) {
		option.LAddr = "127.0.0.1:0"
	})
	assert.Equal(t, nil, err)
	defer sender.Dispose()

	nalus := [][]byte{testSps, testPps, makeNalu(0x65, 3000)}
	packer := rtprtcp.NewRtpPacker(1)
	pkts := packer.PackNalus(nalus, 9000)

	// 监听在另一个协程中完成，先发送直到收到第一个nalu
	var received [][]byte
	deadline := time.Now().Add(5 * time.Second)
	for len(received) == 0 && time.Now().Before(deadline) {
		_ = sender.Write2Addr(pkts[0].Raw, udpAddr)
		select {
		case nalu := <-naluCh:
			received = append(received, nalu)
		case <-time.After(50 * time.Millisecond):
		}
	}
	assert.Equal(t, 1, len(received))
	assert.Equal(t, testSps, received[0])

	// 清空可能重复收到的sps
	time.Sleep(100 * time.Millisecond)
	for len(naluCh) > 0 {
		<-naluCh
	}

	for _, pkt := range pkts[1:] {
		err = sender.Write2Addr(pkt.Raw, udpAddr)
		assert.Equal(t, nil, err)
		time.Sleep(time.Millisecond)
	}
	for i := 1; i < len(nalus); i++ {
		select {
		case nalu := <-naluCh:
			assert.Equal(t, nalus[i], nalu)
		case <-time.After(5 * time.Second):
			t.Fatalf("wait nalu timeout. index=%d", i)
		}
	}

	stat := sm.GetStat()
	assert.Equal(t, uint64(1), stat.Nalu.IdrNum)
	assert.Equal(t, true, stat.Nalu.SpsNum >= 1)

	sm.Dispose()
	sm.Dispose()
	select {
	case <-runErrCh:
	case <-time.After(5 * time.Second):
		t.Fatal("wait run loop done timeout")
	}

	matches, err := filepath.Glob(filepath.Join(outPath, "*.h264"))
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(matches))
	b, err := os.ReadFile(matches[0])
	assert.Equal(t, nil, err)
	got, err := avc.SplitNaluAnnexb(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, len(got) >= len(nalus))
	assert.Equal(t, nalus[2], got[len(got)-1])

	matches, err = filepath.Glob(filepath.Join(outPath, "*.ts"))
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(matches))
	b, err = os.ReadFile(matches[0])
	assert.Equal(t, nil, err)
	assert.Equal(t, true, len(b) > 0)
	assert.Equal(t, 0, len(b)%188)
}
