package types

import (
	"testing"
)

// TestMsgDepositValidateBasic tests deposit message validation
func TestMsgDepositValidateBasic(t *testing.T) {
	valid := MsgDeposit{
		Depositor: testAddr("depositor"),
		Receiver:  testAddr("receiver"),
		Assets:    "1000",
	}
	if err := valid.ValidateBasic(); err != nil {
		t.Errorf("unexpected error for valid msg: %v", err)
	}

	bad := valid
	bad.Depositor = "bad"
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for invalid depositor")
	}

	bad = valid
	bad.Receiver = "bad"
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for invalid receiver")
	}

	bad = valid
	bad.Assets = ""
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for empty amount")
	}
}

// TestMsgWithdrawValidateBasic tests withdraw message validation
func TestMsgWithdrawValidateBasic(t *testing.T) {
	valid := MsgWithdraw{
		Caller:     testAddr("caller"),
		Owner:      testAddr("owner"),
		Receiver:   testAddr("receiver"),
		Shares:     "500",
		MaxLossBps: 100,
	}
	if err := valid.ValidateBasic(); err != nil {
		t.Errorf("unexpected error for valid msg: %v", err)
	}

	bad := valid
	bad.MaxLossBps = BasisPoints + 1
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for max loss above denominator")
	}

	bad = valid
	bad.Owner = "bad"
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for invalid owner")
	}
}

// TestMsgSetConfigValidateBasic tests config message validation
func TestMsgSetConfigValidateBasic(t *testing.T) {
	valid := MsgSetConfig{
		Authority:  testAddr("authority"),
		ConfigBlob: []byte(`{}`),
	}
	if err := valid.ValidateBasic(); err != nil {
		t.Errorf("unexpected error for valid msg: %v", err)
	}

	bad := valid
	bad.ConfigBlob = nil
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for empty blob")
	}
}

// TestMsgGetSigners tests signer derivation for the tx-submitting field
func TestMsgGetSigners(t *testing.T) {
	depositor := testAddr("depositor")
	msg := MsgDeposit{Depositor: depositor, Receiver: testAddr("receiver"), Assets: "1"}

	signers := msg.GetSigners()
	if len(signers) != 1 {
		t.Fatalf("expected 1 signer, got %d", len(signers))
	}
	if signers[0].String() != depositor {
		t.Errorf("expected signer %s, got %s", depositor, signers[0].String())
	}
}
