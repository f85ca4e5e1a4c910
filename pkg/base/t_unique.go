// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/unique"

const (
	UkPreRtpRecvSession   = "RTPRECV"
	UkPreAnnexbFileWriter = "ANNEXBREC"
	UkPreMpegtsFileWriter = "TSREC"
)

func GenUkRtpRecvSession() string {
	return siUkRtpRecvSession.GenUniqueKey()
}

func GenUkAnnexbFileWriter() string {
	return siUkAnnexbFileWriter.GenUniqueKey()
}

func GenUkMpegtsFileWriter() string {
	return siUkMpegtsFileWriter.GenUniqueKey()
}

var (
	siUkRtpRecvSession   *unique.SingleGenerator
	siUkAnnexbFileWriter *unique.SingleGenerator
	siUkMpegtsFileWriter *unique.SingleGenerator
)

func init() {
	siUkRtpRecvSession = unique.NewSingleGenerator(UkPreRtpRecvSession)
	siUkAnnexbFileWriter = unique.NewSingleGenerator(UkPreAnnexbFileWriter)
	siUkMpegtsFileWriter = unique.NewSingleGenerator(UkPreMpegtsFileWriter)
}
