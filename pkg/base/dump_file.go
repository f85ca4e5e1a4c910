// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazaerrors"
)

// DumpFile 将收到的原始udp包落盘，用于离线回放分析
//
// 文件由连续的消息组成，每个消息的格式如下（大端）：
//
//   | ver(4) | typ(4) | len(4) | timestamp(4) | body(len) |
//
// timestamp为写入时的unix秒
type DumpFile struct {
	file *os.File
	r    *bufio.Reader
}

const (
	DumpFileVersion uint32 = 1

	dumpFileMessageHeaderSize = 16
)

const (
	DumpTypeDefault    uint32 = 1
	DumpTypeRtpAvcData uint32 = 2 // 未经任何处理的rtp udp包
)

type DumpFileMessage struct {
	Ver       uint32
	Typ       uint32
	Len       uint32
	Timestamp uint32
	Body      []byte
}

func NewDumpFile() *DumpFile {
	return &DumpFile{}
}

func (d *DumpFile) OpenToWrite(filename string) (err error) {
	dir := filepath.Dir(filename)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return nazaerrors.Wrap(err)
	}
	d.file, err = os.Create(filename)
	return nazaerrors.Wrap(err)
}

func (d *DumpFile) OpenToRead(filename string) (err error) {
	d.file, err = os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w. file=%s", ErrFileNotExist, filename)
		}
		return nazaerrors.Wrap(err)
	}
	d.r = bufio.NewReader(d.file)
	return nil
}

func (d *DumpFile) Write(b []byte) error {
	return d.WriteWithType(b, DumpTypeDefault)
}

func (d *DumpFile) WriteWithType(b []byte, typ uint32) error {
	if d.file == nil {
		return ErrDumpFileNotOpened
	}
	_, err := d.file.Write(d.pack(b, typ, uint32(time.Now().Unix())))
	return err
}

// ReadOneMessage 读取一个消息
//
// @return err: 文件读取结束时返回io.EOF；消息不完整时返回io.ErrUnexpectedEOF
func (d *DumpFile) ReadOneMessage() (m DumpFileMessage, err error) {
	if d.r == nil {
		err = ErrDumpFileNotOpened
		return
	}

	header := make([]byte, dumpFileMessageHeaderSize)
	if _, err = io.ReadFull(d.r, header); err != nil {
		return
	}
	m.Ver = bele.BeUint32(header)
	m.Typ = bele.BeUint32(header[4:])
	m.Len = bele.BeUint32(header[8:])
	m.Timestamp = bele.BeUint32(header[12:])
	if m.Ver != DumpFileVersion {
		err = fmt.Errorf("%w. ver=%d", ErrDumpFileVersion, m.Ver)
		return
	}

	m.Body = make([]byte, m.Len)
	if _, err = io.ReadFull(d.r, m.Body); err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return
}

func (d *DumpFile) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// ---------------------------------------------------------------------------------------------------------------------

func (m *DumpFileMessage) DebugString() string {
	return fmt.Sprintf("ver: %d, typ: %d, len: %d, timestamp: %d, hex: %s",
		m.Ver, m.Typ, m.Len, m.Timestamp, HexPrefix(m.Body, 16))
}

// ---------------------------------------------------------------------------------------------------------------------

func (d *DumpFile) pack(b []byte, typ uint32, timestamp uint32) []byte {
	ret := make([]byte, len(b)+dumpFileMessageHeaderSize)
	bele.BePutUint32(ret, DumpFileVersion)
	bele.BePutUint32(ret[4:], typ)
	bele.BePutUint32(ret[8:], uint32(len(b)))
	bele.BePutUint32(ret[12:], timestamp)
	copy(ret[16:], b)
	return ret
}
