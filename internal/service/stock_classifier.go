package service

import (
	"fmt"
	"math"
)

// StockStatus 库存状态（三态）
type StockStatus string

const (
	StockLow    StockStatus = "low"
	StockNormal StockStatus = "normal"
	StockHigh   StockStatus = "high"
)

// 阈值参数：low = max(minStock*10%, 5)，high = minStock*60%
const (
	lowThresholdRatio  = 0.1
	lowThresholdFloor  = 5.0
	highThresholdRatio = 0.6
)

// Rank 状态排序：low < normal < high
func (s StockStatus) Rank() int {
	switch s {
	case StockLow:
		return 0
	case StockNormal:
		return 1
	case StockHigh:
		return 2
	default:
		return -1
	}
}

// ParseStockStatus 校验并转换状态字符串
func ParseStockStatus(s string) (StockStatus, error) {
	switch StockStatus(s) {
	case StockLow, StockNormal, StockHigh:
		return StockStatus(s), nil
	default:
		return "", fmt.Errorf("invalid stock status %q", s)
	}
}

// Lang 标签语言
type Lang string

const (
	LangES Lang = "es"
	LangEN Lang = "en"
)

// ParseLang 未识别的语言回退到西语（前端默认语言）
func ParseLang(s string) Lang {
	switch Lang(s) {
	case LangEN:
		return LangEN
	default:
		return LangES
	}
}

// Label 徽标文案
func (s StockStatus) Label(lang Lang) string {
	switch s {
	case StockLow:
		if lang == LangEN {
			return "Low Stock"
		}
		return "Stock Bajo"
	case StockNormal:
		if lang == LangEN {
			return "Normal Stock"
		}
		return "Stock Normal"
	case StockHigh:
		if lang == LangEN {
			return "High Stock"
		}
		return "Stock Alto"
	default:
		return ""
	}
}

// StockLevel 单个商品的库存分级结果
type StockLevel struct {
	Status        StockStatus `json:"status"`
	Percentage    int         `json:"percentage"`
	LowThreshold  float64     `json:"low_threshold"`
	HighThreshold float64     `json:"high_threshold"`
}

// percentage 四舍五入（远离零），超出 int 范围时取 math.MaxInt
func percentage(q, m float64) int {
	p := math.Round(q / m * 100)
	if p >= math.MaxInt {
		return math.MaxInt
	}
	return int(p)
}

// ClassifyStock 根据当前数量与最低库存阈值计算库存状态
//
// minStock <= 0 时没有可比较的阈值，返回 ok=false，调用方应完全隐藏状态徽标。
// 先判断 low 再判断 high：minStock 较小时两个阈值会交叉（如 minStock=5 时 low=5、high=3），
// 此时 low 优先。
func ClassifyStock(quantity, minStock int) (level StockLevel, ok bool) {
	if minStock <= 0 {
		return StockLevel{}, false
	}
	if quantity < 0 {
		quantity = 0
	}

	q := float64(quantity)
	m := float64(minStock)
	low := math.Max(m*lowThresholdRatio, lowThresholdFloor)
	high := m * highThresholdRatio

	level = StockLevel{
		Percentage:    percentage(q, m),
		LowThreshold:  low,
		HighThreshold: high,
	}
	switch {
	case q <= low:
		level.Status = StockLow
	case q >= high:
		level.Status = StockHigh
	default:
		level.Status = StockNormal
	}
	return level, true
}
