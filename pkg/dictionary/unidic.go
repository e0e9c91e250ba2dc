//go:build !nounidic

package dictionary

import "github.com/ikawaha/kagome-dict/uni"

// UniDic is the UniDic dictionary bundled by kagome.
const UniDic Kind = "unidic"

func init() {
	Register(UniDic, "UniDic (Japanese)", 10, uni.Dict)
}
