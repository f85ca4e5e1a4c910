// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// ----- 通用的 ---------------------------------------------------------------------------------------------------------

var ErrFileNotExist = errors.New("rtp2nalu: file not exist")

// ----- pkg/avc -------------------------------------------------------------------------------------------------------

var ErrAvc = errors.New("rtp2nalu.avc: fxxk")

// ----- pkg/base ------------------------------------------------------------------------------------------------------

var (
	ErrDumpFileNotOpened = errors.New("rtp2nalu.base: dump file not opened")
	ErrDumpFileVersion   = errors.New("rtp2nalu.base: dump file version mismatch")
)

// ----- pkg/rtprtcp ---------------------------------------------------------------------------------------------------

// 以下错误均不是致命错误，调用方丢弃当前包，继续处理下一个包即可
var (
	ErrRtpMalformedPacket             = errors.New("rtp2nalu.rtprtcp: malformed rtp packet")
	ErrRtpUnsupportedPayloadType      = errors.New("rtp2nalu.rtprtcp: unsupported payload type")
	ErrRtpEmptyPayload                = errors.New("rtp2nalu.rtprtcp: empty payload")
	ErrRtpUnsupportedNaluType         = errors.New("rtp2nalu.rtprtcp: unsupported nalu type")
	ErrRtpShortFragmentPayload        = errors.New("rtp2nalu.rtprtcp: fu-a payload too short")
	ErrRtpMismatchedFragmentTimestamp = errors.New("rtp2nalu.rtprtcp: fu-a timestamp mismatch")
	ErrRtpOrphanFragment              = errors.New("rtp2nalu.rtprtcp: fu-a fragment without start")
)

func NewErrRtpMalformedPacket(length int) error {
	return fmt.Errorf("%w. need=%d, actual=%d", ErrRtpMalformedPacket, RtpFixedHeaderLength, length)
}

func NewErrRtpUnsupportedPayloadType(expected, actual uint8) error {
	return fmt.Errorf("%w. expected=%d, actual=%d", ErrRtpUnsupportedPayloadType, expected, actual)
}

func NewErrRtpUnsupportedNaluType(naluType uint8) error {
	return fmt.Errorf("%w. type=%d", ErrRtpUnsupportedNaluType, naluType)
}

func NewErrRtpMismatchedFragmentTimestamp(expected, actual uint32) error {
	return fmt.Errorf("%w. expected=%d, actual=%d", ErrRtpMismatchedFragmentTimestamp, expected, actual)
}

// ----- pkg/record ----------------------------------------------------------------------------------------------------

var ErrRecordNotOpened = errors.New("rtp2nalu.record: writer not opened")

// ----- pkg/recv ------------------------------------------------------------------------------------------------------

var (
	ErrRecvSessionNotListened = errors.New("rtp2nalu.recv: session has not listened yet")
	ErrRecvSessionDisposed    = errors.New("rtp2nalu.recv: session already disposed")
)

// ----- pkg/logic -----------------------------------------------------------------------------------------------------

var ErrConfigInvalid = errors.New("rtp2nalu.logic: invalid config")

// ---------------------------------------------------------------------------------------------------------------------
