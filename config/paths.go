package config

import (
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
)

const DefaultHomePath = "~/.netstack"

func ExpandHomePath(path string) string {
	res, err := homedir.Expand(path)
	if err != nil {
		panic(err)
	}
	return res
}

const CapturesPath = "captures"

func ExpandCapturesPath(homePath string) string {
	return path.Join(homePath, CapturesPath)
}

func InitCapturesDir(homePath string) error {
	return os.MkdirAll(ExpandCapturesPath(homePath), 0700)
}
