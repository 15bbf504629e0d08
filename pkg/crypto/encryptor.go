// Package crypto 提供配置中心的对称加密能力
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"

	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// Argon2id 派生参数, 与主密钥和盐一样属于进程生命周期常量
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	keyLen       = 32

	nonceSize = 12
	tagSize   = 16

	envelopeSep = ":"
)

// Encryptor AES-256-GCM 加密器, 密钥由主密钥经 Argon2id 派生, 派生结果在实例生命周期内复用
type Encryptor struct {
	aead        cipher.AEAD
	fingerprint string
}

// NewEncryptor 创建加密器
// masterKey 来自环境或密钥管理服务, salt 为应用级静态盐 (用于域隔离, 不要求保密)
func NewEncryptor(masterKey, salt string) (*Encryptor, error) {
	if masterKey == "" {
		return nil, fmt.Errorf("master key is empty")
	}
	if salt == "" {
		return nil, fmt.Errorf("kdf salt is empty")
	}

	key := argon2.IDKey([]byte(masterKey), []byte(salt), argonTime, argonMemory, argonThreads, keyLen)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	sum := sha256.Sum256(key)
	return &Encryptor{
		aead:        aead,
		fingerprint: hex.EncodeToString(sum[:4]),
	}, nil
}

// Fingerprint 返回派生密钥的短指纹, 仅用于日志标识, 不泄露密钥
func (e *Encryptor) Fingerprint() string {
	return e.fingerprint
}

// Encrypt 加密明文, 每次调用生成新随机 nonce
// 信封格式: base64(iv):base64(tag):base64(ciphertext)
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nil, nonce, []byte(plaintext), nil)
	// GCM 输出为 ciphertext||tag, 信封中分段存放
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	parts := []string{
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ciphertext),
	}
	return strings.Join(parts, envelopeSep), nil
}

// Decrypt 解密信封并校验认证标签
// 任何失败 (格式错误或标签不匹配) 统一返回 DECRYPTION_FAILURE, 不区分原因, 不返回部分明文
func (e *Encryptor) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, envelopeSep)
	if len(parts) != 3 {
		return "", apperrors.ErrDecryptionFailure
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", apperrors.ErrDecryptionFailure
	}
	tag, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", apperrors.ErrDecryptionFailure
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", apperrors.ErrDecryptionFailure
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", apperrors.ErrDecryptionFailure
	}
	return string(plaintext), nil
}
