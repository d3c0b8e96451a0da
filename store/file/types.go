package filestore

import (
	"strconv"

	"github.com/cfd-protocol/go-sdk/types"
)

type storeData struct {
	Network        string `json:"network"`
	WalletType     string `json:"wallet_type"`
	RefundTimelock string `json:"refund_timelock"`
	CetCsvDelay    string `json:"cet_csv_delay"`
	FeeRatePerVb   string `json:"fee_rate_per_vb"`
	Dust           string `json:"dust"`
}

func (d storeData) isEmpty() bool {
	return d == storeData{}
}

func (d storeData) decode() types.Config {
	refundTimelock, _ := strconv.Atoi(d.RefundTimelock)
	cetCsvDelay, _ := strconv.Atoi(d.CetCsvDelay)
	feeRatePerVb, _ := strconv.Atoi(d.FeeRatePerVb)
	dust, _ := strconv.Atoi(d.Dust)

	return types.Config{
		Network:        d.Network,
		WalletType:     d.WalletType,
		RefundTimelock: uint32(refundTimelock),
		CetCsvDelay:    uint32(cetCsvDelay),
		FeeRatePerVb:   uint64(feeRatePerVb),
		Dust:           uint64(dust),
	}
}

func encode(data types.Config) storeData {
	return storeData{
		Network:        data.Network,
		WalletType:     data.WalletType,
		RefundTimelock: strconv.FormatUint(uint64(data.RefundTimelock), 10),
		CetCsvDelay:    strconv.FormatUint(uint64(data.CetCsvDelay), 10),
		FeeRatePerVb:   strconv.FormatUint(data.FeeRatePerVb, 10),
		Dust:           strconv.FormatUint(data.Dust, 10),
	}
}
