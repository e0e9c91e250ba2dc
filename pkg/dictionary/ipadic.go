//go:build !noipadic

package dictionary

import "github.com/ikawaha/kagome-dict/ipa"

// IPADic is the MeCab IPADIC dictionary bundled by kagome.
const IPADic Kind = "ipadic"

func init() {
	Register(IPADic, "MeCab IPADIC (Japanese)", 0, ipa.Dict)
}
