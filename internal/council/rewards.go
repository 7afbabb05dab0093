package council

// Reward-table keys accepted by reward_adjustment proposals.
const (
	KeyMinerReward     = "poc_miner_reward"
	KeyValidatorReward = "pos_validator_reward"
	KeyLotteryReward   = "pow_lottery_reward"
)

// RewardConfig is the block reward table, in whole FCU.
type RewardConfig struct {
	MinerReward     uint64
	ValidatorReward uint64
	LotteryReward   uint64
	ActivatedBlock  uint64
}

// DefaultRewardConfig returns the launch reward table.
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		MinerReward:     10,
		ValidatorReward: 5,
		LotteryReward:   2,
	}
}

// apply overwrites fields whose keys appear in the change set and leaves the
// rest untouched.
func (r *RewardConfig) apply(changes map[string]uint64) {
	if v, ok := changes[KeyMinerReward]; ok {
		r.MinerReward = v
	}
	if v, ok := changes[KeyValidatorReward]; ok {
		r.ValidatorReward = v
	}
	if v, ok := changes[KeyLotteryReward]; ok {
		r.LotteryReward = v
	}
}
