package common

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
	NA       = "N/A"
)

var snowflakeNode *snowflake.Node

func init() {
	rand.Seed(time.Now().UnixNano())
	var err error
	snowflakeNode, err = snowflake.NewNode(int64(rand.Intn(1023)))
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a snowflake int64 id
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns a snowflake id in base58 string form
func UUID() string {
	return snowflakeNode.Generate().Base58()
}

// Sha256Hash returns the hex sha256 digest of src
func Sha256Hash(src string) string {
	h := sha256.New()
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}

// Sha256HashWithSalt returns the hex sha256 digest of src combined with salt
func Sha256HashWithSalt(src, salt string) string {
	return Sha256Hash(src + salt)
}

// GetSecretSalt reads the deployment secret salt, falling back to a fixed
// development value when the environment does not provide one.
func GetSecretSalt() string {
	if v := strings.TrimSpace(os.Getenv("LENSMART_SECRET_SALT")); v != "" {
		return v
	}
	return "lensmart-secret"
}

// FileExists checks whether path exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IfEmptyStr returns defval when src is empty
func IfEmptyStr(src, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}
