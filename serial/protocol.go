package serial

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// End-of-travel tokens sent by the controller. The low variants carry no information.
const (
	tokenBeginningHigh = "IC_H"
	tokenEndHigh       = "FC_H"
	tokenEndLow        = "FC_L"
	tokenBeginningLow  = "IC_L"
)

var ErrParse = errors.New("serial: unparseable line")

type TokenKind int

const (
	TokenIgnored TokenKind = iota
	TokenReading
	TokenReachedBeginning
	TokenReachedEnd
)

func (k TokenKind) String() string {
	switch k {
	case TokenReading:
		return "reading"
	case TokenReachedBeginning:
		return "reached_beginning"
	case TokenReachedEnd:
		return "reached_end"
	default:
		return "ignored"
	}
}

// Token is one decoded inbound line. Value is only set for TokenReading.
type Token struct {
	Kind  TokenKind
	Value float64
}

// CleanToken removes the framing some firmware builds echo around each line:
// surrounding whitespace, a b'...' wrapper, escaped and raw CR/LF, and quotes.
func CleanToken(line string) string {
	s := strings.TrimSpace(line)
	if strings.HasPrefix(s, "b'") || strings.HasPrefix(s, `b"`) {
		s = s[2:]
	}
	s = strings.NewReplacer(`\r`, "", `\n`, "", "\r", "", "\n", "", "'", "", `"`, "").Replace(s)
	return strings.TrimSpace(s)
}

// DecodeToken classifies one line from the device.
func DecodeToken(line string) (Token, error) {
	s := CleanToken(line)
	switch s {
	case "":
		return Token{Kind: TokenIgnored}, nil
	case tokenBeginningHigh:
		return Token{Kind: TokenReachedBeginning}, nil
	case tokenEndHigh:
		return Token{Kind: TokenReachedEnd}, nil
	case tokenEndLow, tokenBeginningLow:
		return Token{Kind: TokenIgnored}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Token{}, ErrParse
	}
	return Token{Kind: TokenReading, Value: v}, nil
}

var (
	FillCommand  = []byte("Y")
	EmptyCommand = []byte("X")
)

// TargetPressureCommand encodes a set point as its decimal integer part.
func TargetPressureCommand(v float64) []byte {
	return []byte(strconv.Itoa(int(v)))
}
